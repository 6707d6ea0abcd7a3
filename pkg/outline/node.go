package outline

// Node is one level of a parsed control statement. The root node carries the
// statement id as its label; descendants carry their marker label.
type Node struct {
	Label    string
	Children Children

	prose *string
}

// NewNode creates a node with no prose and no children.
func NewNode(label string) *Node {
	return &Node{Label: label}
}

// Prose returns the node's own text and whether any was attributed to it.
// An empty string with ok == true means a marker line with nothing after it.
func (n *Node) Prose() (string, bool) {
	if n == nil || n.prose == nil {
		return "", false
	}
	return *n.prose, true
}

// SetProse replaces the node's text.
func (n *Node) SetProse(text string) {
	n.prose = &text
}

// AppendLine adds a continuation line, newline-separated from existing prose.
func (n *Node) AppendLine(line string) {
	if n.prose == nil {
		n.SetProse(line)
		return
	}
	joined := *n.prose + "\n" + line
	n.prose = &joined
}

// Walk visits n and its descendants in pre-order, insertion order. path holds
// the labels below the root, so the root is visited with an empty path.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(path []string, node *Node) bool) {
	if n == nil {
		return
	}
	n.walk(nil, fn)
}

func (n *Node) walk(path []string, fn func([]string, *Node) bool) {
	if !fn(path, n) {
		return
	}
	for _, child := range n.Children.Nodes() {
		childPath := make([]string, len(path)+1)
		copy(childPath, path)
		childPath[len(path)] = child.Label
		child.walk(childPath, fn)
	}
}

// Children is an insertion-ordered association from label to node. Setting
// an existing label replaces that node but keeps its original position.
// The zero value is empty and ready to use.
type Children struct {
	nodes []*Node
	index map[string]int
}

// Set stores node under label. The node's Label is updated to match.
func (c *Children) Set(label string, node *Node) {
	node.Label = label
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[label]; ok {
		c.nodes[i] = node
		return
	}
	c.index[label] = len(c.nodes)
	c.nodes = append(c.nodes, node)
}

// Get returns the node stored under label.
func (c *Children) Get(label string) (*Node, bool) {
	i, ok := c.index[label]
	if !ok {
		return nil, false
	}
	return c.nodes[i], true
}

// Len returns the number of children.
func (c *Children) Len() int {
	return len(c.nodes)
}

// Labels returns child labels in insertion order.
func (c *Children) Labels() []string {
	labels := make([]string, len(c.nodes))
	for i, n := range c.nodes {
		labels[i] = n.Label
	}
	return labels
}

// Nodes returns the children in insertion order. The slice must not be modified.
func (c *Children) Nodes() []*Node {
	return c.nodes
}
