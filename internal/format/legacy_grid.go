package format

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/partons-hub/partons/internal/model"
)

const sectionDelimiter = "---"

type gridSection struct {
	xgrid  []float64
	mu2    []float64
	pids   []int32
	values [][]float64 // 每个 (x, q) 一行，每个 pid 一列
}

// DecodeLegacyGrid 解析 LHAPDF .dat 成员：YAML 元数据头之后是以 "---" 分隔的子网格分段。
// 每个分段依次包含 x 节点、Q 节点、pid 列表，以及按 x 优先排列的数值表
// （每个 (x, Q) 一行，每个 pid 一列）。
func DecodeLegacyGrid(content []byte) (*model.Member, error) {
	chunks := splitSections(string(content))

	metadata, err := decodeGridHeader(chunks[0])
	if err != nil {
		return nil, err
	}

	var sections []gridSection
	for _, chunk := range chunks[1:] {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		if len(sections) == model.MaxSubgrids {
			return nil, &GridError{Section: len(sections), Reason: fmt.Sprintf("more than %d subgrids", model.MaxSubgrids)}
		}
		sec, err := decodeSection(len(sections), chunk)
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	if len(sections) == 0 {
		return nil, &GridError{Section: -1, Reason: "no subgrid sections"}
	}

	pids := unionPids(sections)
	position := make(map[int32]int, len(pids))
	for i, pid := range pids {
		position[pid] = i
	}

	subgrids := len(sections)
	blocks := make([]model.Block, len(pids)*subgrids)
	for s, sec := range sections {
		nrows := len(sec.values)
		for k, pid := range sec.pids {
			column := make([]float64, nrows)
			for row := range sec.values {
				column[row] = sec.values[row][k]
			}
			block, err := model.NewBlock([]int32{pid}, sec.xgrid, sec.mu2, column)
			if err != nil {
				return nil, &GridError{Section: s, Reason: err.Error()}
			}
			idx, err := model.BlockIndex(position[pid], model.MinFlavors+s, subgrids)
			if err != nil {
				return nil, &GridError{Section: s, Reason: err.Error()}
			}
			blocks[idx] = *block
		}
	}

	return model.NewMember(metadata, subgrids, pids, blocks)
}

func splitSections(text string) []string {
	var (
		chunks  []string
		current strings.Builder
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == sectionDelimiter {
			chunks = append(chunks, current.String())
			current.Reset()
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	return append(chunks, current.String())
}

func decodeGridHeader(chunk string) (map[string]string, error) {
	metadata := map[string]string{}
	if strings.TrimSpace(chunk) == "" {
		return metadata, nil
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal([]byte(chunk), &raw); err != nil {
		return nil, &GridError{Section: -1, Reason: err.Error()}
	}
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			metadata[key] = v
		case nil:
			metadata[key] = ""
		default:
			metadata[key] = fmt.Sprint(v)
		}
	}
	return metadata, nil
}

func decodeSection(index int, chunk string) (gridSection, error) {
	var lines []string
	for _, line := range strings.Split(chunk, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 3 {
		return gridSection{}, &GridError{Section: index, Reason: fmt.Sprintf("expected x, Q and pid lines, found %d lines", len(lines))}
	}

	xgrid, err := parseFloats(lines[0])
	if err != nil {
		return gridSection{}, &GridError{Section: index, Reason: "x grid: " + err.Error()}
	}
	qgrid, err := parseFloats(lines[1])
	if err != nil {
		return gridSection{}, &GridError{Section: index, Reason: "Q grid: " + err.Error()}
	}
	mu2 := make([]float64, len(qgrid))
	for i, q := range qgrid {
		if q <= 0 {
			return gridSection{}, &GridError{Section: index, Reason: fmt.Sprintf("Q knot %g is not positive", q)}
		}
		mu2[i] = q * q
	}
	pids, err := parsePids(lines[2])
	if err != nil {
		return gridSection{}, &GridError{Section: index, Reason: "pids: " + err.Error()}
	}

	rows := lines[3:]
	if want := len(xgrid) * len(qgrid); len(rows) != want {
		return gridSection{}, &GridError{Section: index, Reason: fmt.Sprintf("expected %d rows (%d x %d), found %d", want, len(xgrid), len(qgrid), len(rows))}
	}
	values := make([][]float64, len(rows))
	for r, line := range rows {
		row, err := parseFloats(line)
		if err != nil {
			return gridSection{}, &GridError{Section: index, Reason: fmt.Sprintf("row %d: %v", r, err)}
		}
		if len(row) != len(pids) {
			return gridSection{}, &GridError{Section: index, Reason: fmt.Sprintf("row %d has %d columns, expected %d", r, len(row), len(pids))}
		}
		values[r] = row
	}

	return gridSection{xgrid: xgrid, mu2: mu2, pids: pids, values: values}, nil
}

func parseFloats(line string) ([]float64, error) {
	fields := strings.Fields(line)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func parsePids(line string) ([]int32, error) {
	fields := strings.Fields(line)
	out := make([]int32, len(fields))
	seen := make(map[int32]bool, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid pid %q", f)
		}
		if seen[int32(v)] {
			return nil, fmt.Errorf("duplicate pid %d", v)
		}
		seen[int32(v)] = true
		out[i] = int32(v)
	}
	return out, nil
}

// unionPids 合并各分段的 pid 列表，保持首次出现的顺序。
func unionPids(sections []gridSection) []int32 {
	seen := map[int32]bool{}
	var pids []int32
	for _, sec := range sections {
		for _, pid := range sec.pids {
			if !seen[pid] {
				seen[pid] = true
				pids = append(pids, pid)
			}
		}
	}
	return pids
}
