package algo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citylab/corridorsim/corridor/algo"
)

func TestSearchGraph(t *testing.T) {
	g := algo.NewSearchGraph[int, int]()

	// 初始化点
	n1 := g.InitNode(1)
	n2 := g.InitNode(2)
	n3 := g.InitNode(3)
	n4 := g.InitNode(4)

	// 初始化边
	e12 := g.InitEdge(n1, n2, 1, 12)
	g.InitEdge(n2, n3, 1, 23)
	g.InitEdge(n3, n4, 1, 34)

	length, err := g.EdgeLength(e12)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, length)
	assert.NoError(t, g.SetEdgeLength(e12, 2.0))
	length, err = g.EdgeLength(e12)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, length)
	assert.NoError(t, g.SetEdgeLength(e12, 1.0))

	// 计算最短路
	path, cost := g.ShortestPath(n1, n4)
	assert.Len(t, path, 4)
	assert.Equal(t, 1, path[0].NodeAttr)
	assert.Equal(t, 12, path[0].EdgeAttr)
	assert.Equal(t, 2, path[1].NodeAttr)
	assert.Equal(t, 23, path[1].EdgeAttr)
	assert.Equal(t, 3, path[2].NodeAttr)
	assert.Equal(t, 34, path[2].EdgeAttr)
	assert.Equal(t, 4, path[3].NodeAttr)
	assert.Equal(t, 3.0, cost)

	path, cost = g.ShortestPath(n3, n3)
	assert.Len(t, path, 1)
	assert.Equal(t, 3, path[0].NodeAttr)
	assert.Equal(t, 0.0, cost)

	// 加入不可达的点
	n5 := g.InitNode(5)
	path, cost = g.ShortestPath(n1, n5)
	assert.Nil(t, path)
	assert.True(t, math.IsInf(cost, 1))
}

func TestSearchGraphPrefersShorterDetour(t *testing.T) {
	g := algo.NewSearchGraph[int, int]()

	// 初始化点
	n1 := g.InitNode(1)
	n2 := g.InitNode(2)
	n3 := g.InitNode(3)

	// 初始化边
	g.InitEdge(n1, n2, 10, 12)
	g.InitEdge(n1, n3, 2, 13)
	g.InitEdge(n3, n2, 1, 32)

	// 计算最短路
	path, cost := g.ShortestPath(n1, n2)
	assert.Len(t, path, 3)
	assert.Equal(t, 1, path[0].NodeAttr)
	assert.Equal(t, 13, path[0].EdgeAttr)
	assert.Equal(t, 3, path[1].NodeAttr)
	assert.Equal(t, 32, path[1].EdgeAttr)
	assert.Equal(t, 2, path[2].NodeAttr)
	assert.Equal(t, 3.0, cost)
}

func TestSearchGraphDisabledEdges(t *testing.T) {
	g := algo.NewSearchGraph[int, int]()

	n1 := g.InitNode(1)
	n2 := g.InitNode(2)
	n3 := g.InitNode(3)

	direct := g.InitEdge(n1, n3, 1, 13)
	g.InitEdge(n1, n2, 2, 12)
	g.InitEdge(n2, n3, 2, 23)

	path, cost := g.ShortestPath(n1, n3)
	assert.Len(t, path, 2)
	assert.Equal(t, 1.0, cost)

	// 关闭直达边后绕行
	assert.NoError(t, g.DisableEdge(direct))
	path, cost = g.ShortestPath(n1, n3)
	assert.Len(t, path, 3)
	assert.Equal(t, 12, path[0].EdgeAttr)
	assert.Equal(t, 4.0, cost)

	// 重新开启
	assert.NoError(t, g.EnableEdge(direct))
	path, cost = g.ShortestPath(n1, n3)
	assert.Len(t, path, 2)
	assert.Equal(t, 1.0, cost)
}

func TestSearchGraphParallelEdges(t *testing.T) {
	g := algo.NewSearchGraph[int, int]()

	n1 := g.InitNode(1)
	n2 := g.InitNode(2)

	fast := g.InitEdge(n1, n2, 1, 101)
	g.InitEdge(n1, n2, 3, 102)

	path, cost := g.ShortestPath(n1, n2)
	assert.Len(t, path, 2)
	assert.Equal(t, 101, path[0].EdgeAttr)
	assert.Equal(t, 1.0, cost)

	// 两条平行边各自独立，关掉快的走慢的
	assert.NoError(t, g.DisableEdge(fast))
	path, cost = g.ShortestPath(n1, n2)
	assert.Len(t, path, 2)
	assert.Equal(t, 102, path[0].EdgeAttr)
	assert.Equal(t, 3.0, cost)
}

func TestSearchGraphEdgeErrors(t *testing.T) {
	g := algo.NewSearchGraph[int, int]()
	g.InitNode(1)

	_, err := g.EdgeLength(0)
	assert.ErrorIs(t, err, algo.ErrNoEdge)
	assert.ErrorIs(t, g.SetEdgeLength(7, 1), algo.ErrNoEdge)
	assert.ErrorIs(t, g.DisableEdge(-1), algo.ErrNoEdge)
	assert.ErrorIs(t, g.EnableEdge(99), algo.ErrNoEdge)
}
