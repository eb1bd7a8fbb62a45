package patch

import (
	"sort"

	"pipelined.dev/patch/engine"
	"pipelined.dev/patch/log"
)

// contextRecord keeps real-time objects of one context. Records of a node
// are sorted by handle.
type contextRecord struct {
	handle  int
	imodule *engine.Module
	omodule *engine.Module
	data    interface{}
	free    func(interface{})
}

// Prepare marks node prepared and runs class prepare hook. Notifications
// are deferred until the hook returns.
func (n *Node) Prepare() {
	if n.prepared {
		log.Integrity(n.logger(), "%v: prepare of prepared node", n)
		return
	}
	n.ref()
	defer n.unref()
	n.freeze()
	n.prepared = true
	n.class.hooks.Prepare(n)
	n.notifyUnprepared()
	n.notify(PropPrepared)
	n.thaw()
}

// Reset dismisses all contexts, waits until runtime applied that and runs
// class reset hook.
func (n *Node) Reset() {
	if !n.prepared {
		log.Integrity(n.logger(), "%v: reset of unprepared node", n)
		return
	}
	n.ref()
	defer n.unref()
	n.freeze()
	eng := n.engine()
	t := eng.Open()
	// descending order keeps the array stable.
	for i := len(n.contexts) - 1; i >= 0; i-- {
		n.DismissContext(n.contexts[i].handle, t)
	}
	eng.Commit(t)
	eng.Wait()
	n.class.hooks.Reset(n)
	n.prepared = false
	n.notifyUnprepared()
	n.notify(PropPrepared)
	n.thaw()
}

func (n *Node) notifyUnprepared() {
	for _, p := range n.class.params {
		if p.Unprepared {
			n.notify(p.Name)
		}
	}
}

// CreateContext allocates context record and runs class hook which must
// create real-time modules.
func (n *Node) CreateContext(handle int, t *engine.Trans) {
	if !n.insertContext(contextRecord{handle: handle}) {
		return
	}
	n.ref()
	defer n.unref()
	n.class.hooks.CreateContext(n, handle, t)
	if n.NumInputs() > 0 && n.ContextIModule(handle) == nil {
		log.Integrity(n.logger(), "%v: context %d has no input module after create", n, handle)
	}
	if n.NumOutputs() > 0 && n.ContextOModule(handle) == nil {
		log.Integrity(n.logger(), "%v: context %d has no output module after create", n, handle)
	}
}

// CreateContextWithData allocates context record with opaque data for
// nodes without channels. free is called with data on dismiss.
func (n *Node) CreateContextWithData(handle int, data interface{}, free func(interface{}), t *engine.Trans) {
	if n.NumInputs() > 0 || n.NumOutputs() > 0 {
		log.Integrity(n.logger(), "%v: context data for node with channels", n)
		return
	}
	if !n.insertContext(contextRecord{handle: handle, data: data, free: free}) {
		return
	}
	n.ref()
	defer n.unref()
	n.class.hooks.CreateContext(n, handle, t)
}

func (n *Node) insertContext(r contextRecord) bool {
	if !n.prepared {
		log.Integrity(n.logger(), "%v: create context %d of unprepared node", n, r.handle)
		return false
	}
	if r.handle <= 0 {
		log.Integrity(n.logger(), "%v: invalid context handle %d", n, r.handle)
		return false
	}
	i := n.searchContext(r.handle)
	if i < len(n.contexts) && n.contexts[i].handle == r.handle {
		log.Integrity(n.logger(), "%v: context %d exists already", n, r.handle)
		return false
	}
	n.contexts = append(n.contexts, contextRecord{})
	copy(n.contexts[i+1:], n.contexts[i:])
	n.contexts[i] = r
	return true
}

// ConnectContext runs class hook which wires inputs of the context.
func (n *Node) ConnectContext(handle int, t *engine.Trans) {
	if n.context(handle) == nil {
		log.Integrity(n.logger(), "%v: connect of unknown context %d", n, handle)
		return
	}
	n.ref()
	defer n.unref()
	n.class.hooks.ConnectContext(n, handle, t)
}

// DismissContext runs class hook which discards real-time modules and
// removes the context record.
func (n *Node) DismissContext(handle int, t *engine.Trans) {
	if n.context(handle) == nil {
		log.Integrity(n.logger(), "%v: dismiss of unknown context %d", n, handle)
		return
	}
	n.ref()
	defer n.unref()
	n.class.hooks.DismissContext(n, handle, t)
	// hook could change the array.
	i := n.searchContext(handle)
	if i == len(n.contexts) || n.contexts[i].handle != handle {
		log.Integrity(n.logger(), "%v: context %d vanished during dismiss", n, handle)
		return
	}
	r := n.contexts[i]
	if r.imodule != nil || r.omodule != nil {
		log.Integrity(n.logger(), "%v: context %d still has modules after dismiss", n, handle)
	}
	if r.free != nil {
		r.free(r.data)
	}
	n.contexts = append(n.contexts[:i], n.contexts[i+1:]...)
}

func (n *Node) searchContext(handle int) int {
	return sort.Search(len(n.contexts), func(i int) bool {
		return n.contexts[i].handle >= handle
	})
}

func (n *Node) context(handle int) *contextRecord {
	i := n.searchContext(handle)
	if i < len(n.contexts) && n.contexts[i].handle == handle {
		return &n.contexts[i]
	}
	return nil
}

// HasContext returns true if context exists.
func (n *Node) HasContext(handle int) bool {
	return n.context(handle) != nil
}

// NumContexts returns number of contexts.
func (n *Node) NumContexts() int {
	return len(n.contexts)
}

// ContextIDs returns handles of contexts in ascending order.
func (n *Node) ContextIDs() []int {
	ids := make([]int, 0, len(n.contexts))
	for _, r := range n.contexts {
		ids = append(ids, r.handle)
	}
	return ids
}

// SetContextIModule sets input module of the context.
func (n *Node) SetContextIModule(handle int, m *engine.Module) {
	r := n.context(handle)
	if r == nil {
		log.Integrity(n.logger(), "%v: set input module of unknown context %d", n, handle)
		return
	}
	if m != nil && (m.NumIStreams() < n.class.nIStreams || m.NumJStreams() < n.class.nJStreams) {
		log.Integrity(n.logger(), "%v: input module %v has not enough streams", n, m)
	}
	r.imodule = m
}

// SetContextOModule sets output module of the context.
func (n *Node) SetContextOModule(handle int, m *engine.Module) {
	r := n.context(handle)
	if r == nil {
		log.Integrity(n.logger(), "%v: set output module of unknown context %d", n, handle)
		return
	}
	if m != nil && m.NumOStreams() < len(n.class.outputs) {
		log.Integrity(n.logger(), "%v: output module %v has not enough streams", n, m)
	}
	r.omodule = m
}

// SetContextModule sets module as both input and output of the context.
func (n *Node) SetContextModule(handle int, m *engine.Module) {
	n.SetContextIModule(handle, m)
	n.SetContextOModule(handle, m)
}

// ContextIModule returns input module of the context.
func (n *Node) ContextIModule(handle int) *engine.Module {
	if r := n.context(handle); r != nil {
		return r.imodule
	}
	return nil
}

// ContextOModule returns output module of the context.
func (n *Node) ContextOModule(handle int) *engine.Module {
	if r := n.context(handle); r != nil {
		return r.omodule
	}
	return nil
}

// ContextData returns opaque data of the context.
func (n *Node) ContextData(handle int) interface{} {
	if r := n.context(handle); r != nil {
		return r.data
	}
	return nil
}

// OModules returns distinct output modules of all contexts.
func (n *Node) OModules() []*engine.Module {
	var modules []*engine.Module
	seen := map[*engine.Module]struct{}{}
	for _, r := range n.contexts {
		if r.omodule == nil {
			continue
		}
		if _, ok := seen[r.omodule]; ok {
			continue
		}
		seen[r.omodule] = struct{}{}
		modules = append(modules, r.omodule)
	}
	return modules
}

// AccessModules adds an access job for every distinct module of every
// context.
func (n *Node) AccessModules(fn func(*engine.Module), t *engine.Trans) {
	seen := map[*engine.Module]struct{}{}
	for _, r := range n.contexts {
		accessRecord(r, fn, t, seen)
	}
}

// AccessModule adds access jobs for distinct modules of one context.
func (n *Node) AccessModule(handle int, fn func(*engine.Module), t *engine.Trans) {
	r := n.context(handle)
	if r == nil {
		log.Integrity(n.logger(), "%v: access of unknown context %d", n, handle)
		return
	}
	accessRecord(*r, fn, t, map[*engine.Module]struct{}{})
}

func accessRecord(r contextRecord, fn func(*engine.Module), t *engine.Trans, seen map[*engine.Module]struct{}) {
	for _, m := range []*engine.Module{r.imodule, r.omodule} {
		if m == nil {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		t.Add(engine.Access(m, fn))
	}
}
