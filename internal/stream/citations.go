// citations.go — 引用(citation)联合:按位置类别区分的五种引用形态。
package stream

// CitationType 引用的位置类别。
type CitationType string

const (
	CitationCharLocation            CitationType = "char_location"
	CitationPageLocation            CitationType = "page_location"
	CitationContentBlockLocation    CitationType = "content_block_location"
	CitationSearchResultLocation    CitationType = "search_result_location"
	CitationWebSearchResultLocation CitationType = "web_search_result_location"
)

// Citation 一条引用。Type 决定哪一组位置字段有效,其余保持零值。
// 块内追加只增不减,顺序即到达顺序。
type Citation struct {
	Type      CitationType `json:"type"`
	CitedText string       `json:"cited_text"`

	// 文档内定位(char/page/content_block)
	DocumentIndex int    `json:"document_index,omitempty"`
	DocumentTitle string `json:"document_title,omitempty"`

	StartCharIndex  int `json:"start_char_index,omitempty"`
	EndCharIndex    int `json:"end_char_index,omitempty"`
	StartPageNumber int `json:"start_page_number,omitempty"`
	EndPageNumber   int `json:"end_page_number,omitempty"`
	StartBlockIndex int `json:"start_block_index,omitempty"`
	EndBlockIndex   int `json:"end_block_index,omitempty"`

	// 搜索结果定位
	SearchResultIndex int    `json:"search_result_index,omitempty"`
	Source            string `json:"source,omitempty"`
	Title             string `json:"title,omitempty"`

	// 网页搜索结果定位
	URL            string `json:"url,omitempty"`
	EncryptedIndex string `json:"encrypted_index,omitempty"`
}

// DecodeCitation 从已反序列化的对象提取一条引用。
// 未知 type 原样保留,字段按存在性取值。
func DecodeCitation(m map[string]any) Citation {
	c := Citation{}
	if s, ok := m["type"].(string); ok {
		c.Type = CitationType(s)
	}
	c.CitedText, _ = m["cited_text"].(string)
	c.DocumentIndex = intOf(m["document_index"])
	c.DocumentTitle, _ = m["document_title"].(string)
	c.StartCharIndex = intOf(m["start_char_index"])
	c.EndCharIndex = intOf(m["end_char_index"])
	c.StartPageNumber = intOf(m["start_page_number"])
	c.EndPageNumber = intOf(m["end_page_number"])
	c.StartBlockIndex = intOf(m["start_block_index"])
	c.EndBlockIndex = intOf(m["end_block_index"])
	c.SearchResultIndex = intOf(m["search_result_index"])
	c.Source, _ = m["source"].(string)
	c.Title, _ = m["title"].(string)
	c.URL, _ = m["url"].(string)
	c.EncryptedIndex, _ = m["encrypted_index"].(string)
	return c
}
