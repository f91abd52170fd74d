package providers

import (
	"errors"
	"github.com/gookit/validate"
	"icd/internal/structures"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return v.Errors
	}

	if cv.conf.Persistence.Driver == "file" && cv.conf.Persistence.FilePath == "" {
		return errors.New("persistence.filePath is required for the file driver")
	}
	if cv.conf.Persistence.Driver == "postgres" && cv.conf.Persistence.DSN == "" {
		return errors.New("persistence.dsn is required for the postgres driver")
	}
	if t := cv.conf.Detector.Threshold; t < 0 || t > 1 {
		return errors.New("detector.threshold must be within [0, 1]")
	}
	return nil
}
