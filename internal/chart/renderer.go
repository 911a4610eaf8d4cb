package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"
	"strings"

	"crypto-weather/internal/domain"
)

const (
	defaultChartWidth  = 960
	defaultChartHeight = 640
	maxChartPoints     = 365
)

// Overlay selects what the auxiliary panel under the price line shows.
type Overlay string

const (
	OverlayPrice  Overlay = "price"
	OverlayRSI    Overlay = "rsi"
	OverlayMACD   Overlay = "macd"
	OverlayVolume Overlay = "volume"
)

// ParseOverlay normalizes an overlay query value, defaulting to price.
func ParseOverlay(s string) (Overlay, error) {
	switch Overlay(strings.ToLower(strings.TrimSpace(s))) {
	case "", OverlayPrice:
		return OverlayPrice, nil
	case OverlayRSI:
		return OverlayRSI, nil
	case OverlayMACD:
		return OverlayMACD, nil
	case OverlayVolume:
		return OverlayVolume, nil
	}
	return "", fmt.Errorf("unsupported overlay: %s", s)
}

// Image is an encoded chart ready to serve.
type Image struct {
	MimeType string
	Width    int
	Height   int
	Bytes    []byte
}

var (
	colBackground = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid       = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colPrice      = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colSMA        = color.RGBA{R: 255, G: 149, B: 0, A: 255}
	colBand       = color.RGBA{R: 104, G: 122, B: 146, A: 255}
	colVolume     = color.RGBA{R: 120, G: 139, B: 164, A: 255}
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderHistory draws a daily price line with a 20-day moving average and
// Bollinger band, plus the requested overlay panel underneath.
func (r *Renderer) RenderHistory(points []domain.PricePoint, overlay Overlay) (*Image, error) {
	series := normalizePoints(points)
	if len(series) < 2 {
		return nil, fmt.Errorf("need at least 2 price points to render chart")
	}
	if len(series) > maxChartPoints {
		series = series[len(series)-maxChartPoints:]
	}

	img := image.NewRGBA(image.Rect(0, 0, defaultChartWidth, defaultChartHeight))
	fillRect(img, img.Bounds(), colBackground)

	mainRect := image.Rect(60, 20, defaultChartWidth-20, (defaultChartHeight*72)/100)
	auxRect := image.Rect(60, mainRect.Max.Y+16, defaultChartWidth-20, defaultChartHeight-30)
	drawGrid(img, mainRect, 8, 6)
	drawGrid(img, auxRect, 8, 3)

	prices := extractPrices(series)
	drawPricePanel(img, mainRect, prices)

	switch overlay {
	case OverlayPrice:
		drawPriceDeltaBars(img, auxRect, prices)
	case OverlayRSI:
		drawRSI(img, auxRect, prices)
	case OverlayMACD:
		drawMACD(img, auxRect, prices)
	case OverlayVolume:
		drawVolumeBars(img, auxRect, extractVolumes(series))
	default:
		return nil, fmt.Errorf("unsupported overlay: %s", overlay)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return &Image{
		MimeType: "image/png",
		Width:    defaultChartWidth,
		Height:   defaultChartHeight,
		Bytes:    buf.Bytes(),
	}, nil
}

func normalizePoints(in []domain.PricePoint) []domain.PricePoint {
	out := make([]domain.PricePoint, 0, len(in))
	for _, p := range in {
		if p.Price <= 0 {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func drawPricePanel(img *image.RGBA, rect image.Rectangle, prices []float64) {
	minV, maxV := finiteBounds(prices)

	if len(prices) >= 20 {
		upper := make([]float64, len(prices))
		lower := make([]float64, len(prices))
		mid := make([]float64, len(prices))
		for i := range prices {
			upper[i] = math.NaN()
			lower[i] = math.NaN()
			mid[i] = math.NaN()
			if i < 19 {
				continue
			}
			m, s := meanStd(prices[i-19 : i+1])
			mid[i] = m
			upper[i] = m + 2*s
			lower[i] = m - 2*s
		}
		minL, _ := finiteBounds(lower)
		_, maxU := finiteBounds(upper)
		minV = math.Min(minV, minL)
		maxV = math.Max(maxV, maxU)
		drawSeries(img, rect, upper, minV, maxV, colBand)
		drawSeries(img, rect, mid, minV, maxV, colSMA)
		drawSeries(img, rect, lower, minV, maxV, colBand)
	}

	drawSeries(img, rect, prices, minV, maxV, colPrice)
}

func drawRSI(img *image.RGBA, rect image.Rectangle, prices []float64) {
	rsi := rsiSeries(prices, 14)
	drawHorizontalValueLine(img, rect, 30, 0, 100, colBand)
	drawHorizontalValueLine(img, rect, 70, 0, 100, colBand)
	drawSeries(img, rect, rsi, 0, 100, colPrice)
}

func drawMACD(img *image.RGBA, rect image.Rectangle, prices []float64) {
	macd, signal := macdSeries(prices, 12, 26, 9)
	minV, maxV := finiteBounds(macd)
	minS, maxS := finiteBounds(signal)
	minV = math.Min(minV, minS)
	maxV = math.Max(maxV, maxS)
	if minV == maxV {
		maxV = minV + 1
	}
	drawHorizontalValueLine(img, rect, 0, minV, maxV, colBand)
	drawSeries(img, rect, macd, minV, maxV, colPrice)
	drawSeries(img, rect, signal, minV, maxV, colSMA)
}

func drawVolumeBars(img *image.RGBA, rect image.Rectangle, volumes []float64) {
	minV, maxV := finiteBounds(volumes)
	if minV > 0 {
		minV = 0
	}
	drawBars(img, rect, volumes, minV, maxV, colVolume)
}

func drawPriceDeltaBars(img *image.RGBA, rect image.Rectangle, prices []float64) {
	if len(prices) < 2 {
		return
	}
	vals := make([]float64, len(prices))
	vals[0] = math.NaN()
	for i := 1; i < len(prices); i++ {
		vals[i] = prices[i] - prices[i-1]
	}
	minV, maxV := finiteBounds(vals)
	if minV == maxV {
		maxV = minV + 1
	}
	drawHorizontalValueLine(img, rect, 0, minV, maxV, colBand)
	drawBars(img, rect, vals, minV, maxV, colVolume)
}

func drawSeries(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	lastX, lastY := -1, -1
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			lastX, lastY = -1, -1
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		if lastX >= 0 {
			drawLine(img, lastX, lastY, x, y, col)
		}
		lastX, lastY = x, y
	}
}

func drawBars(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	if len(series) == 0 {
		return
	}
	barW := max(1, (rect.Dx()-10)/len(series)-1)
	zeroY := mapValueToY(0, minV, maxV, rect)
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		top := min(y, zeroY)
		bottom := max(y, zeroY)
		fillRect(img, image.Rect(x-barW/2, top, x+barW/2+1, bottom+1), col)
	}
}

func drawGrid(img *image.RGBA, rect image.Rectangle, verticalLines, horizontalLines int) {
	for i := 0; i <= verticalLines; i++ {
		x := rect.Min.X + (rect.Dx()*i)/max(1, verticalLines)
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= horizontalLines; i++ {
		y := rect.Min.Y + (rect.Dy()*i)/max(1, horizontalLines)
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func drawHorizontalValueLine(img *image.RGBA, rect image.Rectangle, value, minV, maxV float64, col color.RGBA) {
	y := mapValueToY(value, minV, maxV, rect)
	drawLine(img, rect.Min.X, y, rect.Max.X, y, col)
}

func mapIndexToX(idx, total int, rect image.Rectangle) int {
	if total <= 1 {
		return rect.Min.X
	}
	return rect.Min.X + (idx*(rect.Dx()-1))/(total-1)
}

func mapValueToY(value, minV, maxV float64, rect image.Rectangle) int {
	if maxV <= minV {
		return rect.Max.Y
	}
	ratio := (value - minV) / (maxV - minV)
	ratio = math.Max(0, math.Min(1, ratio))
	return rect.Max.Y - int(ratio*float64(rect.Dy()-1))
}

func finiteBounds(values []float64) (float64, float64) {
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if math.IsInf(minV, 1) || math.IsInf(maxV, -1) {
		return 0, 1
	}
	if minV == maxV {
		return minV, maxV + 1
	}
	return minV, maxV
}

func extractPrices(points []domain.PricePoint) []float64 {
	out := make([]float64, len(points))
	for i := range points {
		out[i] = points[i].Price
	}
	return out
}

func extractVolumes(points []domain.PricePoint) []float64 {
	out := make([]float64, len(points))
	for i := range points {
		out[i] = points[i].Volume
	}
	return out
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if len(values) == 1 {
		return mean, 0
	}
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func emaSeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	alpha := 2.0 / (float64(period) + 1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func macdSeries(values []float64, fast, slow, signal int) ([]float64, []float64) {
	fastEMA := emaSeries(values, fast)
	slowEMA := emaSeries(values, slow)
	macd := make([]float64, len(values))
	for i := range values {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	sig := emaSeries(macd, signal)
	return macd, sig
}

func rsiSeries(closes []float64, period int) []float64 {
	if len(closes) <= period {
		return nil
	}
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gainSum += d
		} else {
			lossSum -= d
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	out[period] = rsiFromAvg(avgGain, avgLoss)
	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain := math.Max(d, 0)
		loss := math.Max(-d, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
