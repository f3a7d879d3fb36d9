package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/finanzfolio/backend/src/logger"
)

func init() {
	logger.InitLogger("error")
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Apple Inc.", SanitizeText("  Apple Inc.  "))
	assert.Equal(t, "Apple", SanitizeText("<script>alert(1)</script>Apple"))
	assert.Equal(t, "bold name", SanitizeText("<b>bold name</b>"))
	assert.Equal(t, "", SanitizeText("<img src=x onerror=alert(1)>"))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "abc", StripUnprintable("a\x00b\x1Bc"))
	assert.Equal(t, "a\tb\nc", StripUnprintable("a\tb\nc"))
}

func TestValidateClientContentType(t *testing.T) {
	assert.NoError(t, ValidateClientContentType("text/csv"))
	assert.NoError(t, ValidateClientContentType("text/csv; charset=utf-8"))
	assert.NoError(t, ValidateClientContentType("application/vnd.ms-excel"))
	assert.Error(t, ValidateClientContentType("application/pdf"))
	assert.Error(t, ValidateClientContentType(""))
}

func TestValidateFileContent(t *testing.T) {
	detected, err := ValidateFileContent(strings.NewReader("Symbol,Quantity,Price\nAAPL,10,150\n"))
	assert.NoError(t, err)
	assert.Equal(t, "text/plain", detected)

	_, err = ValidateFileContent(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ValidateFileContent(strings.NewReader("PK\x03\x04\x00\x00binary"))
	assert.Error(t, err)
}
