package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// User 只暴露聚合管线需要读取的字段；/github 端点透传原始字节，
// 未建模的字段不会丢失。
type User struct {
	Login       string `json:"login"`
	PublicRepos int    `json:"public_repos"`
	ReposURL    string `json:"repos_url"`
}

// Repo 是仓库列表里单个条目的局部视图。
type Repo struct {
	Name         string `json:"name"`
	LanguagesURL string `json:"languages_url"`
}

// LanguageCount 保留语言在 JSON 文档中的出现顺序，字节数求和时的
// 平局顺序由此决定。
type LanguageCount struct {
	Lang  string
	Bytes int64
}

// decodeLanguages 按文档顺序解析 {语言: 字节数} 映射。直接解码进 map
// 会丢失键序，导致平局排序不可复现，因此走 token 流。
func decodeLanguages(data []byte) ([]LanguageCount, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode languages: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode languages: expected object, got %v", tok)
	}

	counts := make([]LanguageCount, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode languages: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("decode languages: unexpected key %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode languages: %w", err)
		}
		num, ok := valTok.(json.Number)
		if !ok {
			return nil, fmt.Errorf("decode languages: %s has non-numeric count %v", name, valTok)
		}
		byteCount, err := num.Int64()
		if err != nil {
			return nil, fmt.Errorf("decode languages: %s: %w", name, err)
		}

		counts = append(counts, LanguageCount{Lang: name, Bytes: byteCount})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode languages: %w", err)
	}
	return counts, nil
}
