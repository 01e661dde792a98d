package patch

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/heartmarshall/json-auditor/internal/jsonvalue"
)

// Diff returns the operations that turn from into to. Unchanged
// substructure never appears in the result; equal inputs give an empty patch.
func Diff(from, to jsonvalue.Value) Patch {
	d := differ{}
	d.diff("", from, to)
	if d.ops == nil {
		return Patch{}
	}
	return d.ops
}

type differ struct {
	ops Patch
}

func (d *differ) emit(op OpType, path string, value jsonvalue.Value) {
	d.ops = append(d.ops, Operation{Op: op, Path: path, Value: value})
}

func (d *differ) diff(path string, from, to jsonvalue.Value) {
	switch {
	case from.Kind() == jsonvalue.KindObject && to.Kind() == jsonvalue.KindObject:
		d.diffObject(path, from, to)
	case from.Kind() == jsonvalue.KindArray && to.Kind() == jsonvalue.KindArray:
		d.diffArray(path, from, to)
	case jsonvalue.Equal(from, to):
	default:
		d.emit(OpReplace, path, to)
	}
}

// diffObject removes vanished keys first, then walks the target's members in
// order: shared keys recurse, new keys are added. A key holding null is
// present; only a missing key is absent.
func (d *differ) diffObject(path string, from, to jsonvalue.Value) {
	for _, m := range from.Members() {
		if !to.Has(m.Key) {
			d.emit(OpRemove, appendToken(path, m.Key), jsonvalue.Value{})
		}
	}
	for _, m := range to.Members() {
		old, ok := from.Get(m.Key)
		if ok {
			d.diff(appendToken(path, m.Key), old, m.Value)
			continue
		}
		d.emit(OpAdd, appendToken(path, m.Key), m.Value)
	}
}

// diffArray aligns the two arrays on their longest common subsequence of
// semantically equal items. Each item is mapped to one rune so that the
// diff-match-patch rune diff can do the alignment. Between two equal runs,
// deleted and inserted items are paired up and diffed in place; the surplus
// becomes removes or adds at the running index.
func (d *differ) diffArray(path string, from, to jsonvalue.Value) {
	a, b := from.Items(), to.Items()

	runesA, runesB, ok := itemRunes(a, b)
	if !ok {
		d.diffArrayPositional(path, a, b)
		return
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMainRunes(runesA, runesB, false)

	var (
		idx, fi, ti int
		dels, ins   []jsonvalue.Value
	)
	flush := func() {
		idx = d.replaceRun(path, idx, dels, ins)
		dels, ins = dels[:0], ins[:0]
	}

	for _, df := range diffs {
		n := utf8.RuneCountInString(df.Text)
		switch df.Type {
		case diffmatchpatch.DiffDelete:
			dels = append(dels, a[fi:fi+n]...)
			fi += n
		case diffmatchpatch.DiffInsert:
			ins = append(ins, b[ti:ti+n]...)
			ti += n
		case diffmatchpatch.DiffEqual:
			flush()
			idx += n
			fi += n
			ti += n
		}
	}
	flush()
}

// replaceRun rewrites dels into ins starting at array index idx and returns
// the index just past the rewritten run.
func (d *differ) replaceRun(path string, idx int, dels, ins []jsonvalue.Value) int {
	paired := min(len(dels), len(ins))
	for k := 0; k < paired; k++ {
		d.diff(appendIndex(path, idx), dels[k], ins[k])
		idx++
	}
	for k := paired; k < len(dels); k++ {
		d.emit(OpRemove, appendIndex(path, idx), jsonvalue.Value{})
	}
	for k := paired; k < len(ins); k++ {
		d.emit(OpAdd, appendIndex(path, idx), ins[k])
		idx++
	}
	return idx
}

func (d *differ) diffArrayPositional(path string, a, b []jsonvalue.Value) {
	d.replaceRun(path, 0, a, b)
}

// itemRunes assigns one rune per distinct item (by canonical form). It
// reports false when the arrays hold more distinct items than there are
// usable runes.
func itemRunes(a, b []jsonvalue.Value) ([]rune, []rune, bool) {
	ids := make(map[string]rune, len(a)+len(b))
	next := rune(1)

	encode := func(items []jsonvalue.Value) ([]rune, bool) {
		out := make([]rune, len(items))
		for i, it := range items {
			key := jsonvalue.Canonical(it)
			r, seen := ids[key]
			if !seen {
				if next > utf8.MaxRune {
					return nil, false
				}
				r = next
				ids[key] = r
				next++
				if next >= 0xD800 && next <= 0xDFFF {
					next = 0xE000
				}
			}
			out[i] = r
		}
		return out, true
	}

	runesA, ok := encode(a)
	if !ok {
		return nil, nil, false
	}
	runesB, ok := encode(b)
	if !ok {
		return nil, nil, false
	}
	return runesA, runesB, true
}
