// Package spatial provides a uniform grid for broad-phase point and area
// queries over the swarm.
package spatial

import (
	"math"
)

// Grid buckets entity ids by position into fixed-size cells.
// Positions outside the world are clamped to the border cells, so enemies
// spawned off-screen are still found.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col])
type Grid struct {
	cellSize    float64
	invCellSize float64
	cols, rows  int
	cells       [][]int
	scratch     []int // reused by QueryRect
	count       int
}

// NewGrid creates a grid covering width × height.
// cellSize should be at least the largest query half-extent.
func NewGrid(width, height, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       make([][]int, cols*rows),
		scratch:     make([]int, 0, 16),
	}
}

// Clear empties every cell, keeping capacity.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

// Insert adds id at (x, y).
func (g *Grid) Insert(id int, x, y float64) {
	idx := g.row(y)*g.cols + g.col(x)
	g.cells[idx] = append(g.cells[idx], id)
	g.count++
}

// Len returns the number of inserted ids.
func (g *Grid) Len() int { return g.count }

// QueryRect returns every id whose cell intersects [minX,maxX] × [minY,maxY].
// Candidates may lie outside the rectangle; callers do the exact test.
//
// IMPORTANT: The returned slice is reused on subsequent calls.
func (g *Grid) QueryRect(minX, minY, maxX, maxY float64) []int {
	g.scratch = g.scratch[:0]

	minCol, maxCol := g.col(minX), g.col(maxX)
	minRow, maxRow := g.row(minY), g.row(maxY)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

func (g *Grid) col(x float64) int {
	return clamp(int(math.Floor(x*g.invCellSize)), g.cols-1)
}

func (g *Grid) row(y float64) int {
	return clamp(int(math.Floor(y*g.invCellSize)), g.rows-1)
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
