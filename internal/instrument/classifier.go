package instrument

import "strings"

// Class buckets instruments by liquidity profile. The bucket drives the
// detector's liquidity threshold and the risk manager's class penalty.
type Class string

const (
	ClassMeme  Class = "meme"
	ClassDeFi  Class = "defi"
	ClassMajor Class = "major"
	ClassOther Class = "other"
)

// Classifier maps instrument symbols to a Class by base-currency lookup.
// The tables come from configuration; the defaults cover the common naming
// conventions but nothing here is a hardcoded decision chain.
type Classifier struct {
	meme  map[string]struct{}
	defi  map[string]struct{}
	major map[string]struct{}
}

// DefaultMemeBases and friends seed the classifier when the config leaves
// the tables empty.
var (
	DefaultMemeBases  = []string{"DOGE", "SHIB", "PEPE", "FLOKI", "BONK", "WIF"}
	DefaultDeFiBases  = []string{"UNI", "AAVE", "SUSHI", "COMP", "CRV", "MKR", "SNX"}
	DefaultMajorBases = []string{"BTC", "ETH", "BNB", "SOL", "XRP", "ADA"}
)

// NewClassifier builds a classifier from the given base-currency tables.
// Empty tables fall back to the defaults.
func NewClassifier(meme, defi, major []string) *Classifier {
	if len(meme) == 0 {
		meme = DefaultMemeBases
	}
	if len(defi) == 0 {
		defi = DefaultDeFiBases
	}
	if len(major) == 0 {
		major = DefaultMajorBases
	}
	return &Classifier{
		meme:  toSet(meme),
		defi:  toSet(defi),
		major: toSet(major),
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToUpper(n)] = struct{}{}
	}
	return set
}

// Class returns the bucket for an instrument symbol. Malformed symbols and
// unknown bases classify as ClassOther.
func (c *Classifier) Class(symbol string) Class {
	base, _, ok := SplitSymbol(symbol)
	if !ok {
		return ClassOther
	}
	base = strings.ToUpper(base)
	if _, ok := c.meme[base]; ok {
		return ClassMeme
	}
	if _, ok := c.defi[base]; ok {
		return ClassDeFi
	}
	if _, ok := c.major[base]; ok {
		return ClassMajor
	}
	return ClassOther
}
