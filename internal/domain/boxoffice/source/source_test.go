package source

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/sniffer"
)

const converted = `<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>全國電影票房2017年12月11日至12月17日統計資訊</title></head>
<body>
<div id="page-container">
<div id="pf1" class="pf w0 h0" data-page-no="1"><div class="pc pc1 w0 h0">
<div class="t m0 x0 h1 y0 ff1 fs0">序號</div>
<div class="t m0 x1 h1 y0 ff1 fs0">國別</div>
<div class="t m0 x0 h2 y1 ff2 fs1">1<span class="_ _0"></span>美國</div>
<div class="t m0 x2 h2 y1 ff2 fs1">星際大戰</div>
<div class="t m0 x3 h2 y1 ff2 fs1"> </div>
<div class="c x4 y1 w1 h3"><div class="t m0 x5 h2 y2 ff2 fs1">2017/12/15</div></div>
<div class="t m0 x0 h1 y3 ff1 fs0">第 1 頁 共 2 頁</div>
</div></div>
<div id="pf2" class="pf w0 h0" data-page-no="2"><div class="pc pc2 w0 h0">
<div class="t m0 x0 h2 y1 ff2 fs1">2</div>
</div></div>
</div>
</body>
</html>`

func TestHTMLSource(t *testing.T) {
	b, err := NewHTMLSource().Extract([]byte(converted))
	require.NoError(t, err)

	assert.Equal(t, "全國電影票房2017年12月11日至12月17日統計資訊", b.Headline())
	require.Len(t, b.Pages, 2)
	assert.Equal(t, 1, b.Pages[0].Number)
	assert.Equal(t, []string{"序號", "國別", "1 美國", "星際大戰", "2017/12/15", "第 1 頁 共 2 頁"}, b.Pages[0].Fragments)
	assert.Equal(t, []string{"2"}, b.Pages[1].Fragments)
}

func TestHTMLSource_NoPages(t *testing.T) {
	_, err := NewHTMLSource().Extract([]byte("<html><body><p>maintenance</p></body></html>"))
	assert.Error(t, err)
}

func TestLoader(t *testing.T) {
	l := NewLoader()

	b, err := l.Load([]byte(converted))
	require.NoError(t, err)
	assert.Equal(t, sniffer.KindHTML, b.Kind)

	_, err = l.Load([]byte("PK\x03\x04 not a bulletin"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = l.Load([]byte("%PDF-1.4\ntruncated"))
	assert.Error(t, err)
}

func TestRowFragments(t *testing.T) {
	row := &pdf.Row{Position: 700, Content: pdf.TextHorizontal{
		{X: 10, W: 5, S: "1"},
		{X: 40, W: 10, S: "美"},
		{X: 50, W: 10, S: "國"},
		{X: 90, W: 10, S: "露"},
		{X: 100, W: 10, S: "西"},
		{X: 200, W: 20, S: "2014/08/08"},
		{X: 260, W: 4, S: " "},
	}}

	assert.Equal(t, []string{"1", "美國", "露西", "2014/08/08"}, rowFragments(row, DefaultCellGap))
	assert.Equal(t, []string{"1美國露西2014/08/08"}, rowFragments(row, 0))
	assert.Empty(t, rowFragments(&pdf.Row{}, DefaultCellGap))
}

func TestBulletin_HeadlineFallback(t *testing.T) {
	b := &Bulletin{}
	assert.Equal(t, "", b.Headline())

	b, err := NewHTMLSource().Extract([]byte(`<html><body><div data-page-no="1"><div><div>2016年2月台北市電影票房</div><div>序號</div></div></div></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "2016年2月台北市電影票房 序號", b.Headline())
}
