package media

const (
	minZoom = 0.5
	maxZoom = 3.0

	wheelZoomStep  = 0.1
	buttonZoomStep = 0.2
)

// Lightbox models the enlarging overlay: bounded zoom plus pan, where panning
// only engages once the image is zoomed past 1x.
type Lightbox struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
}

func NewLightbox() *Lightbox {
	return &Lightbox{Zoom: 1}
}

// Wheel applies one scroll notch; scrolling down zooms out.
func (l *Lightbox) Wheel(deltaY float64) {
	if deltaY > 0 {
		l.setZoom(l.Zoom - wheelZoomStep)
	} else {
		l.setZoom(l.Zoom + wheelZoomStep)
	}
}

func (l *Lightbox) ZoomIn() {
	l.setZoom(l.Zoom + buttonZoomStep)
}

func (l *Lightbox) ZoomOut() {
	l.setZoom(l.Zoom - buttonZoomStep)
}

// Pan moves the image; it is a no-op until the image is zoomed in.
func (l *Lightbox) Pan(dx, dy float64) {
	if l.Zoom <= 1 {
		return
	}
	l.PanX += dx
	l.PanY += dy
}

// Reset restores 1x zoom at the origin, as closing the overlay does.
func (l *Lightbox) Reset() {
	l.Zoom = 1
	l.PanX = 0
	l.PanY = 0
}

func (l *Lightbox) setZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	l.Zoom = zoom
}
