package content

// Link 描述集合中一个元素及其循环意义上的前后元素。
type Link[T any] struct {
	Value    T
	Previous T
	Next     T
}

// Neighbors 返回 list[i] 的前一个与后一个元素：前一个为 (i-1+n)%n，后一个为 (i+1)%n。
// 单元素集合的前后都是自身；i 越界时 ok 为 false。
func Neighbors[T any](list []T, i int) (prev, next T, ok bool) {
	n := len(list)
	if i < 0 || i >= n {
		return prev, next, false
	}
	return list[(i-1+n)%n], list[(i+1)%n], true
}

// Ring 基于同一份快照为每个元素计算前后关系。
func Ring[T any](list []T) []Link[T] {
	links := make([]Link[T], len(list))
	for i, value := range list {
		prev, next, _ := Neighbors(list, i)
		links[i] = Link[T]{Value: value, Previous: prev, Next: next}
	}
	return links
}

// IndexOf 返回第一个满足 match 的元素下标，不存在时返回 -1。
func IndexOf[T any](list []T, match func(T) bool) int {
	for i, value := range list {
		if match(value) {
			return i
		}
	}
	return -1
}
