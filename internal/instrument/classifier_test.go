package instrument

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifierDefaults(t *testing.T) {
	c := NewClassifier(nil, nil, nil)

	assert.Equal(t, ClassMeme, c.Class("DOGE/USDT"))
	assert.Equal(t, ClassDeFi, c.Class("UNI/USDT"))
	assert.Equal(t, ClassMajor, c.Class("BTC/USDT"))
	assert.Equal(t, ClassOther, c.Class("OBSCURE/USDT"))
	assert.Equal(t, ClassOther, c.Class("not-a-symbol"))
}

func TestClassifierCustomTables(t *testing.T) {
	c := NewClassifier([]string{"foo"}, []string{"bar"}, []string{"baz"})

	// Lookup is case-insensitive on the base currency.
	assert.Equal(t, ClassMeme, c.Class("FOO/USDT"))
	assert.Equal(t, ClassDeFi, c.Class("BAR/USDT"))
	assert.Equal(t, ClassMajor, c.Class("BAZ/USDT"))
	assert.Equal(t, ClassOther, c.Class("DOGE/USDT"))
}
