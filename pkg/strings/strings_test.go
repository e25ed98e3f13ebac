package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSprintf(t *testing.T) {
	assert.Equal(t, "plain", Sprintf("plain"))
	assert.Equal(t, "row 3 col B", Sprintf("row %d col %s", 3, "B"))
}

func TestBytesToString(t *testing.T) {
	assert.Equal(t, "", BytesToString(nil))
	assert.Equal(t, "abc", BytesToString([]byte("abc")))
}

func TestTrimNull(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"no padding", []byte("abc"), "abc"},
		{"padded", []byte{'a', 'b', 0, 0}, "ab"},
		{"all padding", []byte{0, 0, 0}, ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(TrimNull(tt.in)))
		})
	}
}

func TestPadFixed(t *testing.T) {
	dst := []byte("xxxxx")
	assert.True(t, PadFixed(dst, "ab"))
	assert.Equal(t, []byte{'a', 'b', 0, 0, 0}, dst)

	assert.True(t, PadFixed(dst, "abcde"))
	assert.Equal(t, "abcde", string(dst))

	assert.False(t, PadFixed(dst, "abcdef"))
}

func TestBuilderPool(t *testing.T) {
	b := GetBuilder(Medium)
	b.WriteString("hello")
	_, _ = b.Write([]byte(" world"))
	assert.Equal(t, 11, b.Len())
	assert.Equal(t, "hello world", b.String())
	PutBuilder(b, Medium)

	again := GetBuilder(Medium)
	assert.Equal(t, 0, again.Len())
	PutBuilder(again, Medium)
}
