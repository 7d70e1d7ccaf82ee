package msg

import (
	"strings"

	"braces.dev/errtrace"
	"github.com/samber/lo"

	"github.com/ghettovoice/textmsg/internal/util"
)

// Params is a list of "name[=value]" parameters or list items.
// A nil list means no parameters.
type Params []string

const paramsBlock = 8

func paramsCap(n int) int { return util.Align(n+1, paramsBlock) }

// Prune tells [Params.Join] which source entries to drop.
type Prune int

const (
	PruneNone      Prune = iota // keep everything
	PruneName                   // a source entry replaces the entry with the same name
	PruneValueFold              // drop entries equal to an existing one ignoring case
	PruneValue                  // drop entries equal to an existing one
)

func paramName(p string) string {
	if i := strings.IndexByte(p, '='); i >= 0 {
		return p[:i]
	}
	return p
}

func paramValue(p string) string {
	if i := strings.IndexByte(p, '='); i >= 0 {
		return p[i+1:]
	}
	return ""
}

func matchParam(p, name string) bool {
	n := len(name)
	return len(p) >= n && util.EqFold(p[:n], name) && (len(p) == n || p[n] == '=')
}

// FindSlot returns the index of the parameter with the given name, or -1.
// The name may carry a trailing "=value" part, it is ignored.
func (p Params) FindSlot(name string) int {
	name = paramName(name)
	if name == "" {
		return -1
	}
	for i := range p {
		if matchParam(p[i], name) {
			return i
		}
	}
	return -1
}

// Find returns the value of the named parameter.
// A parameter without value gives an empty string and true.
func (p Params) Find(name string) (string, bool) {
	i := p.FindSlot(name)
	if i < 0 {
		return "", false
	}
	return paramValue(p[i]), true
}

// Has reports whether the named parameter is present.
func (p Params) Has(name string) bool { return p.FindSlot(name) >= 0 }

// Add appends param to the list.
func (p Params) Add(param string) Params {
	if p == nil || len(p) == cap(p) {
		np := make(Params, len(p), paramsCap(len(p)+1))
		copy(np, p)
		p = np
	}
	return append(p, param)
}

// Replace replaces the parameter with the same name or adds param to the list.
// It reports whether a parameter has been replaced.
func (p Params) Replace(param string) (Params, bool) {
	if i := p.FindSlot(param); i >= 0 {
		p[i] = param
		return p, true
	}
	return p.Add(param), false
}

// Remove removes the first parameter with the given name.
// It reports whether a parameter has been removed.
func (p Params) Remove(name string) (Params, bool) {
	i := p.FindSlot(name)
	if i < 0 {
		return p, false
	}
	p = append(p[:i], p[i+1:]...)
	if len(p) == 0 {
		return nil, true
	}
	return p, true
}

func (p Params) pruned(src string, prune Prune) bool {
	switch prune {
	case PruneName:
		return p.FindSlot(src) >= 0
	case PruneValueFold:
		return lo.ContainsBy(p, func(d string) bool { return util.EqFold(d, src) })
	case PruneValue:
		return lo.Contains(p, src)
	default:
		return false
	}
}

// Join appends entries of src to p dropping duplicates according to prune.
func (p Params) Join(src Params, prune Prune) Params {
	for _, s := range src {
		if prune == PruneName {
			if i := p.FindSlot(s); i >= 0 {
				p[i] = s
				continue
			}
		} else if p.pruned(s, prune) {
			continue
		}
		p = p.Add(s)
	}
	return p
}

// Equal reports whether p and q hold the same parameters in the same order.
// Names are compared ignoring case, values exactly.
func (p Params) Equal(q Params) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		n := len(paramName(p[i]))
		if len(q[i]) < n || !util.EqFold(p[i][:n], q[i][:n]) || p[i][n:] != q[i][n:] {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	np := make(Params, len(p), paramsCap(len(p)))
	copy(np, p)
	return np
}

// Dup returns a copy of p with all strings copied into one block.
func (p Params) Dup() Params {
	return NewDupBuffer(p.Size()).Params(p)
}

// Size returns the total length of the parameter strings.
func (p Params) Size() int {
	return lo.SumBy(p, func(s string) int { return len(s) })
}

// AppendTo appends ";param" for each parameter to b.
func (p Params) AppendTo(b []byte) []byte {
	for _, s := range p {
		if s == "" {
			continue
		}
		b = append(b, ';')
		b = append(b, s...)
	}
	return b
}

// FindParam returns the value of a parameter of h.
func (h *Header) FindParam(name string) (string, bool) {
	if h == nil || !h.Class.Info().HasParams {
		return "", false
	}
	return h.Params.Find(name)
}

func (h *Header) modifyParam(param string, isItem bool, op int) (bool, error) {
	if h == nil || !h.Class.Info().HasParams || param == "" || param[0] == '=' {
		return false, errtrace.Wrap(ErrInvalidArgument)
	}
	idx := -1
	if op <= 0 {
		if isItem {
			idx = lo.IndexOf(h.Params, param)
			if idx >= 0 && op == 0 {
				return true, nil
			}
		} else {
			idx = h.Params.FindSlot(param)
		}
	}
	switch {
	case op < 0 && idx < 0:
		return false, nil
	case op < 0:
		h.Params = append(h.Params[:idx], h.Params[idx+1:]...)
		if len(h.Params) == 0 {
			h.Params = nil
		}
	case idx < 0:
		h.Params = h.Params.Add(param)
	default:
		h.Params[idx] = param
	}
	h.ClearCache()
	name, value := paramName(param), paramValue(param)
	h.Class.UpdateParam(h, name, value, op < 0)
	return op < 0 || idx >= 0, nil
}

// AddParam adds param to h.
func (h *Header) AddParam(param string) error {
	_, err := h.modifyParam(param, false, 1)
	return errtrace.Wrap(err)
}

// ReplaceParam replaces the parameter of h with the same name, or adds param.
// It reports whether a parameter has been replaced.
func (h *Header) ReplaceParam(param string) (bool, error) {
	return errtrace.Wrap2(h.modifyParam(param, false, 0))
}

// RemoveParam removes the named parameter from h.
// It reports whether a parameter has been removed.
func (h *Header) RemoveParam(name string) (bool, error) {
	return errtrace.Wrap2(h.modifyParam(name, false, -1))
}

// UpdateParams calls the class UpdateParam hook for every parameter of h.
// With clear, the hook is first called with empty name to reset derived fields.
func (h *Header) UpdateParams(clear bool) {
	if h == nil || !h.Class.Info().HasParams {
		return
	}
	if clear {
		h.Class.UpdateParam(h, "", "", true)
	}
	for _, p := range h.Params {
		h.Class.UpdateParam(h, paramName(p), paramValue(p), false)
	}
}

// FindItem reports whether h has the list item.
func (h *Header) FindItem(item string) bool {
	if h == nil || !h.Class.Info().HasParams {
		return false
	}
	return lo.Contains(h.Params, item)
}

// ReplaceItem adds item to h unless it is already there.
// It reports whether the item was present.
func (h *Header) ReplaceItem(item string) (bool, error) {
	return errtrace.Wrap2(h.modifyParam(item, true, 0))
}

// RemoveItem removes item from h.
// It reports whether the item has been removed.
func (h *Header) RemoveItem(item string) (bool, error) {
	return errtrace.Wrap2(h.modifyParam(item, true, -1))
}

// JoinItems appends items of src missing in h.
// With dup, the new items are copied into one block.
func (h *Header) JoinItems(src *Header, dup bool) error {
	if h == nil || src == nil || !h.Class.Info().HasParams || !src.Class.Info().HasParams {
		return errtrace.Wrap(ErrInvalidArgument)
	}
	items := lo.Filter(lo.Uniq(src.Params), func(s string, _ int) bool {
		return !lo.Contains(h.Params, s)
	})
	if len(items) == 0 {
		return nil
	}
	if dup {
		items = Params(items).Dup()
	}
	for _, it := range items {
		h.Params = h.Params.Add(it)
		h.Class.UpdateParam(h, paramName(it), paramValue(it), false)
	}
	h.ClearCache()
	return nil
}
