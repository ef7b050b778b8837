package parser

import (
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
)

// countryAnchors are the country and region names that open a record in
// bulletins without a line counter. The split spellings are what the
// converter produces for compound names.
var countryAnchors = []string{
	"美國", "英國", "法國", "德國", "日本", "韓國", "南韓", "北韓",
	"中華民國", "中華民 國", "台灣", "臺灣", "中國大陸", "中國大 陸", "中國", "香港", "澳門",
	"印度", "泰國", "義大利", "西班牙", "加拿大", "澳大利亞", "澳大 利亞", "澳洲",
	"紐西蘭", "紐西 蘭", "俄羅斯", "比利時", "丹麥", "瑞典", "挪威", "芬蘭", "冰島",
	"荷蘭", "愛爾蘭", "墨西哥", "巴西", "阿根廷", "智利", "波蘭", "捷克", "土耳其",
	"伊朗", "以色列", "黎巴嫩", "新加坡", "馬來西亞", "菲律賓", "印尼", "越南",
	"奧地利", "瑞士", "匈牙利", "希臘", "葡萄牙", "南非", "埃及", "其他",
}

// compoundCountries maps the two tokens of a mis-segmented country name to
// the repaired name. New segmentation errors must be added here by hand.
var compoundCountries = map[[2]string]string{
	{"中華民", "國"}: "中華民國",
	{"中國大", "陸"}: "中國大陸",
	{"澳大", "利亞"}: "澳大利亞",
	{"紐西", "蘭"}:  "紐西蘭",
}

// anchorSet finds the longest country anchor a fragment starts with.
type anchorSet struct {
	mu      sync.Mutex
	names   []string
	matcher *ahocorasick.Matcher
}

func newAnchorSet(names []string) *anchorSet {
	return &anchorSet{
		names:   names,
		matcher: ahocorasick.NewStringMatcher(names),
	}
}

var defaultAnchors = newAnchorSet(countryAnchors)

// prefix returns the anchor that s begins with, provided it is followed by
// whitespace or the end of s. The longest confirmed anchor wins.
func (a *anchorSet) prefix(s string) (string, bool) {
	a.mu.Lock()
	hits := a.matcher.Match([]byte(s))
	a.mu.Unlock()

	best := ""
	for _, idx := range hits {
		if idx < 0 || idx >= len(a.names) {
			continue
		}
		name := a.names[idx]
		if len(name) <= len(best) || len(s) < len(name) || s[:len(name)] != name {
			continue
		}
		if rest := s[len(name):]; rest != "" {
			r, _ := utf8.DecodeRuneInString(rest)
			if !unicode.IsSpace(r) {
				continue
			}
		}
		best = name
	}
	return best, best != ""
}
