package decoder

import (
	"image"
)

// largestComponentArea returns the pixel area of the largest 4-connected ink
// component whose seed lies inside the window. Components are clipped at the
// window boundary; ink extending past it does not contribute.
func largestComponentArea(mask []bool, w int, window image.Rectangle) int {
	window = window.Intersect(image.Rect(0, 0, w, len(mask)/w))
	if window.Empty() {
		return 0
	}
	ww, wh := window.Dx(), window.Dy()
	visited := make([]bool, ww*wh)
	localIdx := func(x, y int) int { return (y-window.Min.Y)*ww + (x - window.Min.X) }

	best := 0
	for y := window.Min.Y; y < window.Max.Y; y++ {
		for x := window.Min.X; x < window.Max.X; x++ {
			if !mask[y*w+x] || visited[localIdx(x, y)] {
				continue
			}
			if area := floodArea(mask, visited, w, window, x, y, localIdx); area > best {
				best = area
			}
		}
	}
	return best
}

// floodArea measures one component by BFS from the seed, staying inside the
// window.
func floodArea(mask, visited []bool, w int, window image.Rectangle,
	seedX, seedY int, localIdx func(int, int) int,
) int {
	type pt struct{ x, y int }
	queue := []pt{{seedX, seedY}}
	visited[localIdx(seedX, seedY)] = true
	area := 0

	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		area++
		for _, d := range dirs {
			nx, ny := p.x+d[0], p.y+d[1]
			if nx < window.Min.X || nx >= window.Max.X || ny < window.Min.Y || ny >= window.Max.Y {
				continue
			}
			if !mask[ny*w+nx] || visited[localIdx(nx, ny)] {
				continue
			}
			visited[localIdx(nx, ny)] = true
			queue = append(queue, pt{nx, ny})
		}
	}
	return area
}
