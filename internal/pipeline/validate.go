package pipeline

import (
	"context"
	"strings"

	"github.com/backmassage/pixshift/internal/config"
	"github.com/backmassage/pixshift/internal/media"
)

// Measurer reports image dimensions; the validator only needs this much of
// the engine.
type Measurer interface {
	Measure(ctx context.Context, f media.File) (media.Dimensions, error)
}

// Validator filters a raw selection and enforces the selection limits.
type Validator struct {
	limits     config.Limits
	enforce    bool
	extensions map[string]bool
	measurer   Measurer
}

// Validation is the outcome of a validation pass. Skipped and the totals are
// filled as far as validation got, even when it fails.
type Validation struct {
	Supported       []media.File
	Skipped         int
	TotalBytes      int64
	TotalMegapixels float64
}

// NewValidator builds a validator. When enforce is false only the
// supported-file filter runs.
func NewValidator(limits config.Limits, enforce bool, extensions []string, m Measurer) *Validator {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		set[config.NormalizeExtension(ext)] = true
	}
	return &Validator{limits: limits, enforce: enforce, extensions: set, measurer: m}
}

// Supported reports whether f is accepted as an image: an image/* media type
// or a known extension.
func (v *Validator) Supported(f media.File) bool {
	if strings.HasPrefix(strings.ToLower(f.MediaType), "image/") {
		return true
	}
	ext := f.Ext()
	return ext != "" && v.extensions[ext]
}

// Validate partitions files and checks limits in the order count, bytes,
// megapixels. Megapixels need a per-file measurement; tok is checked before
// and after each one and a stale token aborts with ErrCancelled.
func (v *Validator) Validate(tok *Token, files []media.File) (Validation, error) {
	var res Validation
	supported := make([]media.File, 0, len(files))
	for _, f := range files {
		if v.Supported(f) {
			supported = append(supported, f)
		} else {
			res.Skipped++
		}
	}
	if len(supported) == 0 {
		return res, ErrNoSupportedFiles
	}

	for _, f := range supported {
		res.TotalBytes += f.Size
	}
	if v.enforce {
		if len(supported) > v.limits.MaxFiles {
			return res, &LimitError{Kind: LimitCount, Limit: float64(v.limits.MaxFiles), Actual: float64(len(supported))}
		}
		if res.TotalBytes > v.limits.MaxTotalBytes {
			return res, &LimitError{Kind: LimitBytes, Limit: float64(v.limits.MaxTotalBytes), Actual: float64(res.TotalBytes)}
		}
		for _, f := range supported {
			if !tok.IsCurrent() {
				return res, ErrCancelled
			}
			dims, err := v.measurer.Measure(tok.Context(), f)
			if !tok.IsCurrent() {
				return res, ErrCancelled
			}
			if err != nil {
				return res, &MeasurementError{Name: f.Name, Err: err}
			}
			res.TotalMegapixels += dims.Megapixels()
			if res.TotalMegapixels > v.limits.MaxTotalMegapixels {
				return res, &LimitError{Kind: LimitMegapixels, Limit: v.limits.MaxTotalMegapixels, Actual: res.TotalMegapixels}
			}
		}
	}

	res.Supported = supported
	return res, nil
}
