package app

// Sample 曲线图的一个采样点
type Sample struct {
	Value    float64
	Target   float64
	Lower    float64
	Upper    float64
	Rollover bool // 本 tick 翻转到了新段
}

// History 固定容量的采样环形缓冲区
type History struct {
	samples []Sample
	start   int
	size    int
}

// NewHistory 创建容量为 capacity 的缓冲区（至少为 2）
func NewHistory(capacity int) *History {
	if capacity < 2 {
		capacity = 2
	}
	return &History{samples: make([]Sample, capacity)}
}

// Push 追加采样，满时覆盖最旧的
func (h *History) Push(s Sample) {
	idx := (h.start + h.size) % len(h.samples)
	h.samples[idx] = s
	if h.size < len(h.samples) {
		h.size++
	} else {
		h.start = (h.start + 1) % len(h.samples)
	}
}

// Len 当前采样数
func (h *History) Len() int {
	return h.size
}

// Cap 容量
func (h *History) Cap() int {
	return len(h.samples)
}

// At 第 i 个采样（0 为最旧）
func (h *History) At(i int) Sample {
	return h.samples[(h.start+i)%len(h.samples)]
}

// Range 所有采样中值和上下界的最小、最大值
func (h *History) Range() (lo, hi float64, ok bool) {
	if h.size == 0 {
		return 0, 0, false
	}
	first := h.At(0)
	lo, hi = first.Value, first.Value
	for i := 0; i < h.size; i++ {
		s := h.At(i)
		for _, v := range [...]float64{s.Value, s.Target, s.Lower, s.Upper} {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi, true
}

// Clear 清空缓冲区
func (h *History) Clear() {
	h.start = 0
	h.size = 0
}
