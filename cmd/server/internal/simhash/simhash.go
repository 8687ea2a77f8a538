package simhash

import (
	"math/bits"
	"strings"

	"github.com/go-dedup/simhash"

	"github.com/houzhh15/resumedit/pkg/markupdiff"
)

// SimilarThreshold 汉明距离 <= 该值视为近似重复内容
const SimilarThreshold = 10

// ContentFeatureSet 实现 simhash.FeatureSet，以标记外的单词及相邻词对作为特征
type ContentFeatureSet struct {
	words []string
}

// NewContentFeatureSet 从富文本内容中提取单词，标签不参与特征计算
func NewContentFeatureSet(markup string) ContentFeatureSet {
	var words []string
	for _, tok := range markupdiff.Tokenize(markup) {
		if tok.Kind != markupdiff.TokenWord {
			continue
		}
		w := strings.ToLower(strings.Trim(tok.Text, ".,;:!?()[]\"'"))
		if w != "" {
			words = append(words, w)
		}
	}
	return ContentFeatureSet{words: words}
}

// GetFeatures 提取文本特征
// 单词特征权重为 1，相邻词对特征额外捕捉语序
func (c ContentFeatureSet) GetFeatures() []simhash.Feature {
	features := make([]simhash.Feature, 0, len(c.words)*2)
	for i, w := range c.words {
		features = append(features, simhash.NewFeature([]byte(w)))
		if i+1 < len(c.words) {
			features = append(features, simhash.NewFeature([]byte(w+" "+c.words[i+1])))
		}
	}
	return features
}

// CalculateSimHash 计算内容的 SimHash 指纹
func CalculateSimHash(markup string) uint64 {
	sh := simhash.NewSimhash()
	return sh.GetSimhash(NewContentFeatureSet(markup))
}

// HammingDistance 计算两个 SimHash 指纹的汉明距离（0-64）
func HammingDistance(hash1, hash2 uint64) int {
	return bits.OnesCount64(hash1 ^ hash2)
}

// Similarity 两段内容的相似度
type Similarity struct {
	Distance int     `json:"distance"`
	Score    float64 `json:"score"`
	Similar  bool    `json:"similar"`
}

// Compare 比较两段内容，Score = 1 - 距离/64
func Compare(original, current string) Similarity {
	return similarity(HammingDistance(CalculateSimHash(original), CalculateSimHash(current)))
}

func similarity(d int) Similarity {
	return Similarity{
		Distance: d,
		Score:    1 - float64(d)/64,
		Similar:  d <= SimilarThreshold,
	}
}
