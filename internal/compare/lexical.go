package compare

import "strings"

// LexicalConfig 词法差异计算器配置
type LexicalConfig struct {
	// MaxDiffRunes 全量字符级diff的规模上限（两侧字符数之和）
	// 超过上限时降级为段落块diff，而不是静默返回不完整结果
	MaxDiffRunes int
}

// DefaultLexicalConfig 返回默认词法差异配置
func DefaultLexicalConfig() LexicalConfig {
	return LexicalConfig{
		MaxDiffRunes: 30000,
	}
}

// LexicalDiffer 词法差异计算器
// 基于最长公共子序列的编辑脚本对齐，输出删除和新增两个有序区间列表
type LexicalDiffer struct {
	config LexicalConfig
}

// NewLexicalDiffer 创建新的词法差异计算器
func NewLexicalDiffer(config LexicalConfig) *LexicalDiffer {
	if config.MaxDiffRunes <= 0 {
		config.MaxDiffRunes = DefaultLexicalConfig().MaxDiffRunes
	}
	return &LexicalDiffer{config: config}
}

// Diff 计算源文本和目标文本之间的编辑脚本
// 删除区间相对源文本，新增区间相对目标文本，偏移量以字节计
// 契约：等值区间+删除区间按源顺序拼接可精确还原源文本；
// 等值区间+新增区间按目标顺序拼接可精确还原目标文本
func (d *LexicalDiffer) Diff(source, target string) (deletions, additions []TextChange) {
	if source == target {
		return nil, nil
	}

	srcRunes := []rune(source)
	tgtRunes := []rune(target)

	if len(srcRunes)+len(tgtRunes) > d.config.MaxDiffRunes {
		return d.diffBlocks(source, target)
	}

	srcOffsets := runeByteOffsets(source)
	tgtOffsets := runeByteOffsets(target)

	for _, op := range opcodes(matchingBlocks(srcRunes, tgtRunes)) {
		switch op.tag {
		case opDelete, opReplace:
			deletions = append(deletions, TextChange{
				Type:        ChangeDeletion,
				Text:        string(srcRunes[op.i1:op.i2]),
				StartOffset: srcOffsets[op.i1],
				EndOffset:   srcOffsets[op.i2],
			})
		}
		switch op.tag {
		case opInsert, opReplace:
			additions = append(additions, TextChange{
				Type:        ChangeAddition,
				Text:        string(tgtRunes[op.j1:op.j2]),
				StartOffset: tgtOffsets[op.j1],
				EndOffset:   tgtOffsets[op.j2],
			})
		}
	}
	return deletions, additions
}

// diffBlocks 段落块级别的降级diff
// 把文本切成保留分隔符的段落块序列，对块序列做同样的对齐
// 粒度更粗但区间划分契约依然成立
func (d *LexicalDiffer) diffBlocks(source, target string) (deletions, additions []TextChange) {
	srcBlocks, srcOffsets := splitBlocks(source)
	tgtBlocks, tgtOffsets := splitBlocks(target)

	for _, op := range opcodes(matchingBlocks(srcBlocks, tgtBlocks)) {
		switch op.tag {
		case opDelete, opReplace:
			deletions = append(deletions, TextChange{
				Type:        ChangeDeletion,
				Text:        strings.Join(srcBlocks[op.i1:op.i2], ""),
				StartOffset: srcOffsets[op.i1],
				EndOffset:   srcOffsets[op.i2],
			})
		}
		switch op.tag {
		case opInsert, opReplace:
			additions = append(additions, TextChange{
				Type:        ChangeAddition,
				Text:        strings.Join(tgtBlocks[op.j1:op.j2], ""),
				StartOffset: tgtOffsets[op.j1],
				EndOffset:   tgtOffsets[op.j2],
			})
		}
	}
	return deletions, additions
}

// opTag 编辑操作类型
type opTag int

const (
	opEqual opTag = iota
	opInsert
	opDelete
	opReplace
)

// opcode 一个编辑操作
// [i1,i2)是源序列区间，[j1,j2)是目标序列区间
type opcode struct {
	tag            opTag
	i1, i2, j1, j2 int
}

// matchBlock 一个公共匹配块
type matchBlock struct {
	a, b, size int
}

// matchingBlocks 计算两个序列的所有最长公共匹配块
// 递归地在未匹配区间中寻找最长公共子串，结果按位置升序排列
// 末尾带一个size为0的哨兵块
func matchingBlocks[T comparable](a, b []T) []matchBlock {
	// 为b建立元素到位置列表的索引
	b2j := make(map[T][]int, len(b))
	for j, elem := range b {
		b2j[elem] = append(b2j[elem], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	var blocks []matchBlock

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if m.size == 0 {
			continue
		}
		blocks = append(blocks, m)
		if s.alo < m.a && s.blo < m.b {
			queue = append(queue, span{s.alo, m.a, s.blo, m.b})
		}
		if m.a+m.size < s.ahi && m.b+m.size < s.bhi {
			queue = append(queue, span{m.a + m.size, s.ahi, m.b + m.size, s.bhi})
		}
	}

	sortBlocks(blocks)

	// 合并相邻的匹配块
	var merged []matchBlock
	for _, blk := range blocks {
		if n := len(merged); n > 0 && merged[n-1].a+merged[n-1].size == blk.a && merged[n-1].b+merged[n-1].size == blk.b {
			merged[n-1].size += blk.size
			continue
		}
		merged = append(merged, blk)
	}

	return append(merged, matchBlock{len(a), len(b), 0})
}

// longestMatch 在a[alo:ahi]和b[blo:bhi]中寻找最长公共匹配块
// 分数相同时取a中最早、再b中最早出现的块，保证确定性
func longestMatch[T comparable](a []T, b2j map[T][]int, alo, ahi, blo, bhi int) matchBlock {
	besti, bestj, bestsize := alo, blo, 0
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newJ2len
	}

	return matchBlock{besti, bestj, bestsize}
}

// sortBlocks 按(a,b)位置对匹配块做插入排序
// 块数量通常很小，不值得引入sort包的接口开销
func sortBlocks(blocks []matchBlock) {
	for i := 1; i < len(blocks); i++ {
		for j := i; j > 0; j-- {
			prev, cur := blocks[j-1], blocks[j]
			if cur.a < prev.a || (cur.a == prev.a && cur.b < prev.b) {
				blocks[j-1], blocks[j] = cur, prev
			} else {
				break
			}
		}
	}
}

// opcodes 把匹配块序列转换为编辑操作序列
// replace表示同一逻辑位置上源区间被目标区间替换
// 依赖matchingBlocks末尾的哨兵块覆盖两侧的尾部区间
func opcodes(blocks []matchBlock) []opcode {
	var ops []opcode
	i, j := 0, 0
	for _, blk := range blocks {
		tag := opTag(-1)
		switch {
		case i < blk.a && j < blk.b:
			tag = opReplace
		case i < blk.a:
			tag = opDelete
		case j < blk.b:
			tag = opInsert
		}
		if tag >= 0 {
			ops = append(ops, opcode{tag, i, blk.a, j, blk.b})
		}
		i, j = blk.a+blk.size, blk.b+blk.size
		if blk.size > 0 {
			ops = append(ops, opcode{opEqual, blk.a, i, blk.b, j})
		}
	}
	return ops
}

// runeByteOffsets 计算每个rune起点的字节偏移
// 返回长度为len(runes)+1的数组，末尾是文本总字节数
func runeByteOffsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))
	return offsets
}

// splitBlocks 把文本切成保留分隔符的段落块
// 每个块带上它后面的空行分隔符，拼接所有块可还原全文
// 同时返回每个块起点的字节偏移（末尾补总长度）
func splitBlocks(s string) ([]string, []int) {
	var blocks []string
	var offsets []int

	start := 0
	for start < len(s) {
		idx := strings.Index(s[start:], "\n\n")
		if idx < 0 {
			blocks = append(blocks, s[start:])
			offsets = append(offsets, start)
			start = len(s)
			break
		}
		end := start + idx + 2
		// 把连续的空行并入当前块
		for end < len(s) && s[end] == '\n' {
			end++
		}
		blocks = append(blocks, s[start:end])
		offsets = append(offsets, start)
		start = end
	}
	offsets = append(offsets, len(s))
	return blocks, offsets
}
