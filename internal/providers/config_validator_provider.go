package providers

import (
	"errors"
	"fmt"
	"gatebot/internal/structures"
	"regexp"

	"github.com/gookit/validate"
)

var pinPattern = regexp.MustCompile(`^[0-9]{6}$`)

type CnfValidatorInterface interface {
	Validate() error
}

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) CnfValidatorInterface {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}
	if !pinPattern.MatchString(c.conf.Admin.PIN) {
		return errors.New("invalid config: admin.pin must be exactly 6 digits")
	}
	if c.conf.Admin.ElevationTTL < 0 {
		return errors.New("invalid config: admin.elevationTTL must not be negative")
	}
	return nil
}
