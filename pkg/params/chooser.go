package params

// None 表示"未选择"的选项
const None = "None"

// Chooser 字符串选择字段
//
// 选项列表只用于界面展示，Set 不校验值是否在列表中：
// 延迟加载的目标在写入时可能还不存在。
type Chooser struct {
	name     string
	val      string
	choices  []string
	onChange func(string)
}

// NewChooser 创建选择字段，初始值为空（未选择）
func NewChooser(name string, choices []string) *Chooser {
	c := &Chooser{name: name}
	c.SetChoices(choices)
	return c
}

// Name 字段名
func (c *Chooser) Name() string { return c.name }

// Val 当前值（空字符串表示未选择）
func (c *Chooser) Val() string { return c.val }

// Choices 当前选项列表副本
func (c *Chooser) Choices() []string {
	out := make([]string, len(c.choices))
	copy(out, c.choices)
	return out
}

// SetChoices 替换选项列表
func (c *Chooser) SetChoices(choices []string) {
	c.choices = append(c.choices[:0], choices...)
}

// OnChange 设置值变化回调
func (c *Chooser) OnChange(fn func(string)) {
	c.onChange = fn
}

// Set 写入值，"None" 归一化为空字符串
func (c *Chooser) Set(v string) {
	v = Normalize(v)
	if v == c.val {
		return
	}
	c.val = v
	if c.onChange != nil {
		c.onChange(v)
	}
}

// SetNoCallback 写入值但不调用回调
func (c *Chooser) SetNoCallback(v string) {
	c.val = Normalize(v)
}

// Next 切换到选项列表中的下一个值（循环），返回新值
func (c *Chooser) Next() string {
	return c.step(1)
}

// Prev 切换到选项列表中的上一个值（循环），返回新值
func (c *Chooser) Prev() string {
	return c.step(-1)
}

func (c *Chooser) step(delta int) string {
	if len(c.choices) == 0 {
		return c.val
	}
	idx := -1
	for i, choice := range c.choices {
		if Normalize(choice) == c.val {
			idx = i
			break
		}
	}
	n := len(c.choices)
	next := ((idx+delta)%n + n) % n
	if idx < 0 && delta < 0 {
		next = n - 1
	}
	c.Set(c.choices[next])
	return c.val
}

// Normalize 将 "None" 归一化为空字符串
func Normalize(v string) string {
	if v == None {
		return ""
	}
	return v
}
