package builtin

import (
	"regexp"
	"sync"

	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/value"
)

func init() {
	register2("re_match", builtinReMatch)
}

var (
	regexpCacheMu sync.Mutex
	regexpCache   = map[string]*regexp.Regexp{}
)

// getAnchoredRegexp compiles pattern wrapped in ^...$ (re_match is
// implicitly anchored), caching compiled patterns the way OPA's own
// re_match built-in does.
func getAnchoredRegexp(pattern string) (*regexp.Regexp, error) {
	regexpCacheMu.Lock()
	defer regexpCacheMu.Unlock()
	if re, ok := regexpCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return nil, errs.InvalidRegex(err)
	}
	regexpCache[pattern] = re
	return re, nil
}

func builtinReMatch(patternV, strV value.Value) (value.Value, error) {
	pattern, ok := patternV.(value.String)
	if !ok {
		return nil, errs.InvalidType("string", patternV.Kind().String())
	}
	s, ok := strV.(value.String)
	if !ok {
		return nil, errs.InvalidType("string", strV.Kind().String())
	}
	re, err := getAnchoredRegexp(string(pattern))
	if err != nil {
		return nil, err
	}
	return value.Bool(re.MatchString(string(s))), nil
}
