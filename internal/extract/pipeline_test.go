package extract

import (
	"context"
	"image"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves canned page images and text for pipeline policy tests.
type fakeSource struct {
	pages      int
	imagesRead []int // pages whose images were requested
	text_      string
}

func (f *fakeSource) pageCount() int { return f.pages }

func (f *fakeSource) pageImages(pageNum int) ([]image.Image, error) {
	f.imagesRead = append(f.imagesRead, pageNum)
	return []image.Image{image.NewGray(image.Rect(0, 0, 1, 1))}, nil
}

func (f *fakeSource) text(int) (string, error) { return f.text_, nil }

// fakeDecoder returns a payload per page in sequence; empty means no code.
type fakeDecoder struct {
	payloads []string
	calls    int
}

func (d *fakeDecoder) Decode(image.Image) (string, error) {
	var payload string
	if d.calls < len(d.payloads) {
		payload = d.payloads[d.calls]
	}
	d.calls++
	if payload == "" {
		return "", ErrNoQR
	}
	return payload, nil
}

func newTestPipeline(cfg Config, dec QRDecoder) *Pipeline {
	return NewPipeline(cfg, dec, zerolog.Nop())
}

func TestProcessCollectsQRFromAllPages(t *testing.T) {
	src := &fakeSource{pages: 3}
	dec := &fakeDecoder{payloads: []string{"Cadena:1", "", "Cadena:3"}}

	p := newTestPipeline(Config{MaxPages: 100}, dec)
	records, method, err := p.process(context.Background(), src)

	require.NoError(t, err)
	assert.Equal(t, MethodQR, method)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].Folio)
	assert.Equal(t, "3", records[1].Folio)
	assert.Equal(t, []int{1, 2, 3}, src.imagesRead)
}

func TestProcessStopAtFirstQR(t *testing.T) {
	src := &fakeSource{pages: 5}
	dec := &fakeDecoder{payloads: []string{"Cadena:1", "Cadena:2"}}

	p := newTestPipeline(Config{MaxPages: 100, StopAtFirstQR: true}, dec)
	records, method, err := p.process(context.Background(), src)

	require.NoError(t, err)
	assert.Equal(t, MethodQR, method)
	require.Len(t, records, 1)
	assert.Equal(t, []int{1}, src.imagesRead, "scan must stop after the first hit")
}

func TestProcessPageCap(t *testing.T) {
	src := &fakeSource{pages: 50}
	dec := &fakeDecoder{}

	p := newTestPipeline(Config{MaxPages: 10}, dec)
	_, method, err := p.process(context.Background(), src)

	require.NoError(t, err)
	assert.Equal(t, MethodNone, method)
	assert.Len(t, src.imagesRead, 10)
}

func TestProcessTextFallback(t *testing.T) {
	src := &fakeSource{pages: 1, text_: "Identificador Electrónico 987\nSexo: MUJER\n"}
	dec := &fakeDecoder{}

	p := newTestPipeline(Config{MaxPages: 100}, dec)
	records, method, err := p.process(context.Background(), src)

	require.NoError(t, err)
	assert.Equal(t, MethodText, method)
	require.Len(t, records, 1)
	assert.Equal(t, "987", records[0].Folio)
	assert.Equal(t, "M", records[0].Sexo)
}

func TestProcessNothingFound(t *testing.T) {
	src := &fakeSource{pages: 2, text_: "sin datos utiles"}
	dec := &fakeDecoder{}

	p := newTestPipeline(Config{MaxPages: 100}, dec)
	records, method, err := p.process(context.Background(), src)

	require.NoError(t, err)
	assert.Equal(t, MethodNone, method)
	assert.Empty(t, records)
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{pages: 3}
	p := newTestPipeline(Config{MaxPages: 100}, &fakeDecoder{})

	_, _, err := p.process(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessPDFRejectsCorruptBytes(t *testing.T) {
	p := newTestPipeline(Config{MaxPages: 100}, &fakeDecoder{})

	_, method, err := p.ProcessPDF(context.Background(), []byte("%PDF-not-really"))
	assert.Error(t, err)
	assert.Equal(t, MethodNone, method)
}
