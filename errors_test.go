package fogsim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportErrs(t *testing.T) {
	assert.NoError(t, ReportErrs(nil))
	assert.NoError(t, ReportErrs([]error{nil, nil}))

	first := fmt.Errorf("device a: %w", ErrInvalidParameter)
	second := fmt.Errorf("device b: %w", ErrDuplicateName)
	err := ReportErrs([]error{first, nil, second})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.ErrorContains(t, err, "device a")
	assert.ErrorContains(t, err, "device b")
}
