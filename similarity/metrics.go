// Package similarity 实现协同过滤相似度引擎：
// 基于用户-餐厅综合评分向量计算用户间相似度，生成协同过滤推荐。
package similarity

import (
	"math"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// commonKeys 返回两个向量的公共 key（共同访问的餐厅）。
func commonKeys(v1, v2 map[int64]float64) []int64 {
	keys := make([]int64, 0)
	for k := range v1 {
		if _, ok := v2[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// CommonCount 返回两个向量的公共 key 数量。
func CommonCount(v1, v2 map[int64]float64) int {
	n := 0
	for k := range v1 {
		if _, ok := v2[k]; ok {
			n++
		}
	}
	return n
}

// Cosine 计算余弦相似度，向量限制在公共 key 上。
// 无公共 key 或任一模为 0 时返回 0。
func Cosine(v1, v2 map[int64]float64) float64 {
	common := commonKeys(v1, v2)
	if len(common) == 0 {
		return 0.0
	}

	var dot, norm1, norm2 float64
	for _, k := range common {
		r1, r2 := v1[k], v2[k]
		dot += r1 * r2
		norm1 += r1 * r1
		norm2 += r2 * r2
	}
	norm1 = math.Sqrt(norm1)
	norm2 = math.Sqrt(norm2)
	if norm1 == 0 || norm2 == 0 {
		return 0.0
	}
	return dot / (norm1 * norm2)
}

// Pearson 计算皮尔逊相关系数，向量限制在公共 key 上。
// 公共 key 少于 2 个或任一侧零方差时返回 0。
func Pearson(v1, v2 map[int64]float64) float64 {
	common := commonKeys(v1, v2)
	if len(common) < 2 {
		return 0.0
	}

	var avg1, avg2 float64
	for _, k := range common {
		avg1 += v1[k]
		avg2 += v2[k]
	}
	avg1 /= float64(len(common))
	avg2 /= float64(len(common))

	var numerator, denom1, denom2 float64
	for _, k := range common {
		d1 := v1[k] - avg1
		d2 := v2[k] - avg2
		numerator += d1 * d2
		denom1 += d1 * d1
		denom2 += d2 * d2
	}
	denom1 = math.Sqrt(denom1)
	denom2 = math.Sqrt(denom2)
	if denom1 == 0 || denom2 == 0 {
		return 0.0
	}
	return numerator / (denom1 * denom2)
}

// AdjustedCosine 计算调整余弦相似度：
// 先用各自向量的均值做中心化，再在公共 key 上计算余弦。
func AdjustedCosine(v1, v2 map[int64]float64) float64 {
	common := commonKeys(v1, v2)
	if len(common) == 0 {
		return 0.0
	}

	mean := func(v map[int64]float64) float64 {
		if len(v) == 0 {
			return 0.0
		}
		var sum float64
		for _, r := range v {
			sum += r
		}
		return sum / float64(len(v))
	}
	m1, m2 := mean(v1), mean(v2)

	var numerator, denom1, denom2 float64
	for _, k := range common {
		d1 := v1[k] - m1
		d2 := v2[k] - m2
		numerator += d1 * d2
		denom1 += d1 * d1
		denom2 += d2 * d2
	}
	denom1 = math.Sqrt(denom1)
	denom2 = math.Sqrt(denom2)
	if denom1 == 0 || denom2 == 0 {
		return 0.0
	}
	return numerator / (denom1 * denom2)
}

// Compute 按方法计算相似度，未知方法按余弦处理。
// 相似度对称：Compute(v1, v2, m) == Compute(v2, v1, m)。
func Compute(v1, v2 map[int64]float64, method core.Method) float64 {
	switch method {
	case core.MethodPearson:
		return Pearson(v1, v2)
	case core.MethodAdjustedCosine:
		return AdjustedCosine(v1, v2)
	default:
		return Cosine(v1, v2)
	}
}
