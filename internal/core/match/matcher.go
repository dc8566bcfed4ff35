package match

import (
	"regexp"
	"strings"
	"sync"
)

// Matcher 判斷偏好詞是否命中食譜文字
// 做成介面讓比對策略可以單獨測試與替換
type Matcher interface {
	Matches(term, text string) bool
}

// WordBoundaryMatcher 預設策略
// 單詞：整詞比對（\b 邊界），避免 "ham" 誤中 "hamburger"
// 多詞：各詞依序出現即可，詞與詞之間允許任意文字
type WordBoundaryMatcher struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

// NewWordBoundaryMatcher 創建預設比對策略
func NewWordBoundaryMatcher() *WordBoundaryMatcher {
	return &WordBoundaryMatcher{
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Matches 實現 Matcher 介面
func (m *WordBoundaryMatcher) Matches(term, text string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}

	re := m.pattern(term)
	if re == nil {
		// 詞本身含不合法字元時退回純子字串包含
		return strings.Contains(strings.ToLower(text), term)
	}
	return re.MatchString(strings.ToLower(text))
}

// pattern 取出或編譯該詞的正則，編譯結果做快取
func (m *WordBoundaryMatcher) pattern(term string) *regexp.Regexp {
	m.mu.RLock()
	re, ok := m.patterns[term]
	m.mu.RUnlock()
	if ok {
		return re
	}

	words := strings.Fields(term)
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, `\b`+regexp.QuoteMeta(w)+`\b`)
	}
	// 多詞條目允許詞間夾任意文字，但順序必須一致
	expr := "(?s)" + strings.Join(parts, ".*?")

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}

	m.mu.Lock()
	m.patterns[term] = re
	m.mu.Unlock()
	return re
}

// TokenSetMatcher 替代策略：詞集合包含
// 把文字切成詞集合，條目的每個詞都必須出現（不要求順序）
type TokenSetMatcher struct{}

// NewTokenSetMatcher 創建詞集合比對策略
func NewTokenSetMatcher() *TokenSetMatcher {
	return &TokenSetMatcher{}
}

var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Matches 實現 Matcher 介面
func (m *TokenSetMatcher) Matches(term, text string) bool {
	termTokens := tokenize(term)
	if len(termTokens) == 0 {
		return false
	}

	textTokens := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		textTokens[tok] = struct{}{}
	}

	for _, tok := range termTokens {
		if _, ok := textTokens[tok]; !ok {
			return false
		}
	}
	return true
}

func tokenize(s string) []string {
	var tokens []string
	for _, tok := range tokenSplitPattern.Split(strings.ToLower(s), -1) {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
