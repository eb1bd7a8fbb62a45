package patch

// feeds returns true if target is producer itself or one of its
// transitive inputs. Connecting producer to target would close a cycle
// then.
func feeds(target, producer *Node) bool {
	if target == producer {
		return true
	}
	found := false
	walkInputs(producer, func(n *Node) bool {
		if n == target {
			found = true
			return false
		}
		return true
	})
	return found
}

// walkInputs visits every transitive input of the node once. Walk stops
// when fn returns false.
func walkInputs(n *Node, fn func(*Node) bool) {
	visited := map[*Node]struct{}{n: {}}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i := range cur.inputs {
			for _, e := range cur.inputs[i].edges(cur.IsJoint(i)) {
				if _, ok := visited[e.Producer]; ok {
					continue
				}
				visited[e.Producer] = struct{}{}
				if !fn(e.Producer) {
					return
				}
				stack = append(stack, e.Producer)
			}
		}
	}
}

// CollectInputs returns all transitive inputs of the node.
func CollectInputs(n *Node) []*Node {
	var nodes []*Node
	walkInputs(n, func(p *Node) bool {
		nodes = append(nodes, p)
		return true
	})
	return nodes
}

// CollectInputsFlat returns distinct direct inputs of the node.
func CollectInputsFlat(n *Node) []*Node {
	var nodes []*Node
	visited := map[*Node]struct{}{}
	for i := range n.inputs {
		for _, e := range n.inputs[i].edges(n.IsJoint(i)) {
			if _, ok := visited[e.Producer]; ok {
				continue
			}
			visited[e.Producer] = struct{}{}
			nodes = append(nodes, e.Producer)
		}
	}
	return nodes
}
