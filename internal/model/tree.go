package model

// node is a vertex of the Huffman tree. Leaves are the output classes
// [0, osz); internal nodes follow in creation order.
type node struct {
	parent int32
	left   int32
	right  int32
	count  float64
	binary bool
}

// SoftmaxTree is a Huffman tree over the output classes. Internal node
// osz+i owns row i of the output matrix.
type SoftmaxTree struct {
	osz   int32
	nodes []node
	paths [][]int32
	codes [][]bool
}

// BuildTree builds the tree for classes with the given counts. Counts must
// be non-increasing, as the dictionary orders them.
func BuildTree(counts []float64) *SoftmaxTree {
	osz := int32(len(counts))
	if osz == 0 {
		return &SoftmaxTree{}
	}
	n := 2*osz - 1
	nodes := make([]node, n)
	for i := range nodes {
		nodes[i] = node{parent: -1, left: -1, right: -1, count: 1e15}
	}
	for i, c := range counts {
		nodes[i].count = c
	}

	leaf, next := osz-1, osz
	for i := osz; i < n; i++ {
		var mini [2]int32
		for j := range mini {
			if leaf >= 0 && nodes[leaf].count < nodes[next].count {
				mini[j] = leaf
				leaf--
			} else {
				mini[j] = next
				next++
			}
		}
		nodes[i].left = mini[0]
		nodes[i].right = mini[1]
		nodes[i].count = nodes[mini[0]].count + nodes[mini[1]].count
		nodes[mini[0]].parent = i
		nodes[mini[1]].parent = i
		nodes[mini[1]].binary = true
	}

	t := &SoftmaxTree{
		osz:   osz,
		nodes: nodes,
		paths: make([][]int32, osz),
		codes: make([][]bool, osz),
	}
	for i := int32(0); i < osz; i++ {
		var path []int32
		var code []bool
		for j := i; nodes[j].parent != -1; j = nodes[j].parent {
			path = append(path, nodes[j].parent-osz)
			code = append(code, nodes[j].binary)
		}
		for a, b := 0, len(path)-1; a < b; a, b = a+1, b-1 {
			path[a], path[b] = path[b], path[a]
			code[a], code[b] = code[b], code[a]
		}
		t.paths[i] = path
		t.codes[i] = code
	}
	return t
}

// OutputRows returns the number of output matrix rows the tree addresses.
func (t *SoftmaxTree) OutputRows() int {
	if t.osz == 0 {
		return 0
	}
	return int(t.osz - 1)
}

// Root returns the index of the root node.
func (t *SoftmaxTree) Root() int32 { return int32(len(t.nodes)) - 1 }

// Path returns the output rows visited from the root to leaf class.
func (t *SoftmaxTree) Path(class int32) []int32 { return t.paths[class] }

// Code returns the branch taken at each step of Path; true is right.
func (t *SoftmaxTree) Code(class int32) []bool { return t.codes[class] }

func (t *SoftmaxTree) isLeaf(n int32) bool {
	return t.nodes[n].left == -1 && t.nodes[n].right == -1
}
