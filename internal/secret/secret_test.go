package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresent(t *testing.T) {
	assert.Equal(t, Mask, Present("AKIA-secret"))
	assert.Empty(t, Present(""))
}

func TestAccept(t *testing.T) {
	testCases := []struct {
		name      string
		submitted string
		value     string
		write     bool
	}{
		{name: "mask keeps stored", submitted: Mask},
		{name: "empty keeps stored", submitted: ""},
		{name: "new value is written", submitted: "s3cr3t", value: "s3cr3t", write: true},
		{name: "longer mask is a real value", submitted: Mask + "*", value: Mask + "*", write: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			value, write := Accept(tc.submitted)
			assert.Equal(t, tc.write, write)
			assert.Equal(t, tc.value, value)
		})
	}
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, Mask, Display("aws.secret_access_key", "plain"))
	assert.Equal(t, Mask, Display("AWS_SECRET_ACCESS_KEY", "plain"))
	assert.Empty(t, Display("AWS_SECRET_ACCESS_KEY", ""))
	assert.Equal(t, "plain", Display("aws.access_key_id", "plain"))
	assert.True(t, IsSecret("filesystems.disks.s3.secret"))
	assert.False(t, IsSecret("app.name"))
}
