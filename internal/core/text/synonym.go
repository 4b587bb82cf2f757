package text

import "strings"

// SynonymEntry 一個標準名稱與其別名
type SynonymEntry struct {
	Canonical string
	Aliases   []string
}

// SynonymTable 有序的同義詞表。
// 一個詞出現在多個條目時，以表中第一個條目為準。
type SynonymTable []SynonymEntry

// DefaultSynonyms 預設的食材同義詞表
var DefaultSynonyms = SynonymTable{
	{Canonical: "eggplant", Aliases: []string{"aubergine", "brinjal"}},
	{Canonical: "zucchini", Aliases: []string{"courgette"}},
	{Canonical: "bell pepper", Aliases: []string{"capsicum"}},
	{Canonical: "okra", Aliases: []string{"ladyfinger"}},
	{Canonical: "green onion", Aliases: []string{"spring onion"}},
	{Canonical: "beet", Aliases: []string{"beetroot"}},
	{Canonical: "coriander", Aliases: []string{"cilantro"}},
	{Canonical: "mixed vegetables", Aliases: []string{"vegetables", "stir-fry vegetables"}},
	{Canonical: "corn", Aliases: []string{"sweet corn"}},
	{Canonical: "yam", Aliases: []string{"sweet potato", "taro"}},
	{Canonical: "cauliflower", Aliases: []string{"gobi", "flower cabbage"}},
	{Canonical: "cabbage", Aliases: []string{"red cabbage", "green cabbage"}},
	{Canonical: "cheddar cheese", Aliases: []string{"cheese"}},
	{Canonical: "mozzarella cheese", Aliases: []string{"cheese"}},
	{Canonical: "parmesan cheese", Aliases: []string{"cheese"}},
	{Canonical: "paneer", Aliases: []string{"cottage cheese", "Indian cheese"}},
	{Canonical: "ghee", Aliases: []string{"clarified butter", "butter"}},
	{Canonical: "yogurt (milk, cultures)", Aliases: []string{"yogurt", "curd"}},
	{Canonical: "chicken breast", Aliases: []string{"chicken", "poultry"}},
	{Canonical: "salmon fillet", Aliases: []string{"salmon", "fish"}},
	{Canonical: "prawns", Aliases: []string{"shrimp", "shellfish"}},
	{Canonical: "wheat flour", Aliases: []string{"flour", "all-purpose flour"}},
	{Canonical: "olive oil", Aliases: []string{"oil", "extra virgin olive oil"}},
	{Canonical: "black pepper", Aliases: []string{"peppercorns"}},
	{Canonical: "cinnamon", Aliases: []string{"cassia", "Ceylon cinnamon"}},
	{Canonical: "turmeric", Aliases: []string{"haldi"}},
	{Canonical: "chili powder", Aliases: []string{"red chili powder", "cayenne pepper powder"}},
	{Canonical: "garam masala", Aliases: []string{"Indian spice mix"}},
}

// Normalizer 依同義詞表逐字改寫文字
type Normalizer struct {
	lookup map[string]string
}

// NewNormalizer 建立正規化器，表為 nil 時使用 DefaultSynonyms
func NewNormalizer(table SynonymTable) *Normalizer {
	if table == nil {
		table = DefaultSynonyms
	}
	lookup := make(map[string]string)
	for _, entry := range table {
		canonical := strings.ToLower(strings.TrimSpace(entry.Canonical))
		if canonical == "" {
			continue
		}
		terms := append([]string{entry.Canonical}, entry.Aliases...)
		for _, term := range terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			// first entry wins
			if _, exists := lookup[term]; !exists {
				lookup[term] = canonical
			}
		}
	}
	return &Normalizer{lookup: lookup}
}

// Normalize 以空白切詞，符合標準名或別名（不分大小寫）的詞換成標準名
func (n *Normalizer) Normalize(text string) string {
	words := strings.Fields(text)
	for i, word := range words {
		if canonical, ok := n.lookup[strings.ToLower(word)]; ok {
			words[i] = canonical
		}
	}
	return strings.Join(words, " ")
}

// Canonical 查詢單一詞彙的標準名，不存在時回傳原詞
func (n *Normalizer) Canonical(term string) string {
	if canonical, ok := n.lookup[strings.ToLower(strings.TrimSpace(term))]; ok {
		return canonical
	}
	return term
}
