package contact

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "bare local number", input: "88887777", expected: "50688887777"},
		{name: "local number with dash", input: "8888-7777", expected: "50688887777"},
		{name: "already prefixed", input: "50688887777", expected: "50688887777"},
		{name: "international format", input: "+506 8888 7777", expected: "50688887777"},
		{name: "channel address", input: "50688887777@s.whatsapp.net", expected: "50688887777"},
		{name: "channel address with device", input: "50688887777:12@s.whatsapp.net", expected: "50688887777"},
		{name: "foreign number passes through", input: "+1 (555) 010-9999", expected: "15550109999"},
		{name: "short garbage", input: "abc12", expected: "12"},
		{name: "empty input", input: "", expected: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestNormalize_LocalInputsGetPrefix(t *testing.T) {
	for i := 0; i < 200; i++ {
		local := fmt.Sprintf("%08d", 60000000+i*12347)
		key := Normalize(local)
		assert.Len(t, key, TotalLength)
		assert.Equal(t, CountryPrefix+local, key)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"50688887777", "50670001234", "50620202020", "88887777", "+1 555 0100"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "50688887777@s.whatsapp.net", Address("8888 7777"))
	assert.Equal(t, "50688887777@s.whatsapp.net", Address("50688887777@s.whatsapp.net"))
}

func TestDisplay(t *testing.T) {
	t.Run("formats full local number", func(t *testing.T) {
		assert.Equal(t, "+506 8888-7777", Display("88887777"))
		assert.Equal(t, "+506 8888-7777", Display("50688887777@s.whatsapp.net"))
	})

	t.Run("returns input unchanged otherwise", func(t *testing.T) {
		assert.Equal(t, "+1 555 0100", Display("+1 555 0100"))
		assert.Equal(t, "", Display(""))
	})
}

func TestParse(t *testing.T) {
	c := Parse("8888-7777")
	assert.Equal(t, "50688887777", c.Key)
	assert.Equal(t, "50688887777@s.whatsapp.net", c.Address)
	assert.Equal(t, "+506 8888-7777", c.Display)
}

func TestIsGroup(t *testing.T) {
	assert.True(t, IsGroup("120363025246125486@g.us"))
	assert.True(t, IsGroup("status@broadcast"))
	assert.True(t, IsGroup("1234@broadcast"))
	assert.False(t, IsGroup("50688887777@s.whatsapp.net"))
	assert.False(t, IsGroup("88887777"))
}
