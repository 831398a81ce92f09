package analysis

import "fmt"

const (
	faceScaleMax   = 256
	faceBlockSize  = 16
	faceBlockSkin  = 0.4 // fraction of skin pixels for a block to count
	faceMinBlocks  = 4   // connected skin blocks needed for a face region
)

// faceDetector finds face-like regions by clustering skin-tone blocks.
type faceDetector struct{}

func newFaceDetector() *faceDetector { return &faceDetector{} }

func (d *faceDetector) Name() string { return "face" }

func (d *faceDetector) Analyze(frame *Frame) ([]Detection, error) {
	img, err := frame.Image()
	if err != nil {
		return nil, err
	}
	img = scaled(img, faceScaleMax)
	b := img.Bounds()

	cols := (b.Dx() + faceBlockSize - 1) / faceBlockSize
	rows := (b.Dy() + faceBlockSize - 1) / faceBlockSize
	if cols == 0 || rows == 0 {
		return nil, nil
	}

	// Mark blocks dominated by skin tones.
	skin := make([]bool, cols*rows)
	for by := 0; by < rows; by++ {
		for bx := 0; bx < cols; bx++ {
			total, hits := 0, 0
			for y := by * faceBlockSize; y < (by+1)*faceBlockSize && y < b.Dy(); y++ {
				for x := bx * faceBlockSize; x < (bx+1)*faceBlockSize && x < b.Dx(); x++ {
					total++
					if isSkin(rgb8(img.At(b.Min.X+x, b.Min.Y+y))) {
						hits++
					}
				}
			}
			if total > 0 && float64(hits)/float64(total) > faceBlockSkin {
				skin[by*cols+bx] = true
			}
		}
	}

	// Flood-fill connected skin blocks into regions.
	seen := make([]bool, len(skin))
	var detections []Detection
	for i := range skin {
		if !skin[i] || seen[i] {
			continue
		}
		size := 0
		stack := []int{i}
		seen[i] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			cx, cy := cur%cols, cur/cols
			for _, n := range [][2]int{{cx - 1, cy}, {cx + 1, cy}, {cx, cy - 1}, {cx, cy + 1}} {
				if n[0] < 0 || n[0] >= cols || n[1] < 0 || n[1] >= rows {
					continue
				}
				idx := n[1]*cols + n[0]
				if skin[idx] && !seen[idx] {
					seen[idx] = true
					stack = append(stack, idx)
				}
			}
		}
		if size >= faceMinBlocks {
			// A 16-block region reads as a confident, full face.
			conf := float64(size) / 16.0
			if conf > 1 {
				conf = 1
			}
			detections = append(detections, Detection{
				Kind:       KindFaceDetected,
				Confidence: conf,
				Message:    fmt.Sprintf("face-like region of %d blocks", size),
			})
		}
	}
	return detections, nil
}
