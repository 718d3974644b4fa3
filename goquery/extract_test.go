package goquery_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propix/propix"
	"github.com/propix/propix/goquery"
	"github.com/propix/propix/mock"
)

func fetcherReturning(t *testing.T, wantURL, html string) *mock.PageFetcher {
	t.Helper()
	return &mock.PageFetcher{
		FetchFn: func(ctx context.Context, url string) (string, error) {
			if wantURL != "" {
				assert.Equal(t, wantURL, url)
			}
			return html, nil
		},
	}
}

func springfieldProperty() *propix.Property {
	return &propix.Property{
		Key:    "123-main-st-springfield-il-62704",
		Street: "123 Main St",
		City:   "Springfield",
		State:  "IL",
		Zip:    "62704",
	}
}

func TestGenericExtractor_GalleryMarkup(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<meta property="og:image" content="https://cdn.example.com/hero.jpg">
	</head><body>
		<div class="photo-gallery">
			<img src="/photos/front.jpg" alt="Front elevation" width="1024" height="768">
			<img srcset="/photos/kitchen-400.jpg 400w, /photos/kitchen-1600.jpg 1600w" alt="Kitchen">
			<img src="https://cdn.example.com/hero.jpg">
			<img src="/assets/logo.png">
			<img src="data:image/png;base64,AAAA">
		</div>
	</body></html>`

	ex, err := goquery.NewGenericExtractor(
		fetcherReturning(t, "https://listings.example.com/homes/123-main-st-springfield-il-62704", html),
		"https://listings.example.com/homes/{slug}")
	require.NoError(t, err)

	d, err := ex.Discover(context.Background(), springfieldProperty())
	require.NoError(t, err)

	urls := make([]string, 0, len(d.Images))
	for _, img := range d.Images {
		urls = append(urls, img.URL)
	}
	assert.Equal(t, []string{
		"https://cdn.example.com/hero.jpg",
		"https://listings.example.com/photos/front.jpg",
		"https://listings.example.com/photos/kitchen-1600.jpg",
	}, urls, "og:image first, relative URLs resolved, srcset widest wins, logo and data URI dropped")

	assert.Equal(t, "Front elevation", d.Images[1].Caption)
	assert.Equal(t, 1024, d.Images[1].Width)
	assert.Equal(t, 1600, d.Images[2].Width, "srcset width descriptor overrides missing attribute")
}

func TestGenericExtractor_JSONLD(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<script type="application/ld+json">
		{
			"@type": "SingleFamilyResidence",
			"image": [
				"https://cdn.example.com/ld-1.jpg",
				{"@type": "ImageObject", "contentUrl": "https://cdn.example.com/ld-2.jpg"}
			],
			"numberOfBedrooms": 3,
			"floorSize": {"value": 1850, "unitCode": "FTK"},
			"offers": {"price": 425000, "priceCurrency": "USD"}
		}
		</script>
		<script type="application/ld+json">not json at all</script>
	</head><body>
		<div class="gallery"><img src="https://cdn.example.com/ld-1.jpg"></div>
	</body></html>`

	ex, err := goquery.NewGenericExtractor(fetcherReturning(t, "", html), "https://x.example.com/{slug}")
	require.NoError(t, err)

	d, err := ex.Discover(context.Background(), springfieldProperty())
	require.NoError(t, err)

	urls := make([]string, 0, len(d.Images))
	for _, img := range d.Images {
		urls = append(urls, img.URL)
	}
	assert.Equal(t, []string{
		"https://cdn.example.com/ld-1.jpg",
		"https://cdn.example.com/ld-2.jpg",
	}, urls, "structured data first, gallery duplicate of ld-1 dropped")

	assert.Equal(t, "425000", d.Fields["price"])
	assert.Equal(t, "USD", d.Fields["price_currency"])
	assert.Equal(t, "3", d.Fields["number_of_bedrooms"])
	assert.Equal(t, "1850", d.Fields["floor_size"])
}

func TestGenericExtractor_FetchErrorPassesThrough(t *testing.T) {
	t.Parallel()

	fetcher := &mock.PageFetcher{
		FetchFn: func(ctx context.Context, url string) (string, error) {
			return "", propix.Errorf(propix.ECHALLENGE, "captcha interstitial")
		},
	}
	ex, err := goquery.NewGenericExtractor(fetcher, "https://x.example.com/{slug}")
	require.NoError(t, err)

	_, err = ex.Discover(context.Background(), springfieldProperty())
	assert.Equal(t, propix.ECHALLENGE, propix.ErrorCode(err))
}

func TestGenericExtractor_EmptyPage(t *testing.T) {
	t.Parallel()

	ex, err := goquery.NewGenericExtractor(fetcherReturning(t, "", "<html><body><p>No listing found.</p></body></html>"), "https://x.example.com/{slug}")
	require.NoError(t, err)

	d, err := ex.Discover(context.Background(), springfieldProperty())
	require.NoError(t, err, "zero candidates is a successful discovery")
	assert.Empty(t, d.Images)
}

func TestNewGenericExtractor_Config(t *testing.T) {
	t.Parallel()

	_, err := goquery.NewGenericExtractor(nil, "https://x.example.com/{slug}")
	assert.Equal(t, propix.ECONFIG, propix.ErrorCode(err))

	_, err = goquery.NewGenericExtractor(fetcherReturning(t, "", ""), "")
	assert.Equal(t, propix.ECONFIG, propix.ErrorCode(err))
}

func TestZillowExtractor(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<ul class="photo-carousel-list">
			<li><img src="https://photos.zillowstatic.com/fp/abc-cc_ft_1536.jpg" alt="Living room"></li>
			<li><img src="https://photos.zillowstatic.com/fp/def-cc_ft_1536.jpg"></li>
		</ul>
	</body></html>`

	ex, err := goquery.NewZillowExtractor(
		fetcherReturning(t, "https://portal.test/homes/123-main-st-springfield-il-62704_rb/", html),
		"https://portal.test")
	require.NoError(t, err)
	assert.Equal(t, "zillow", ex.Name())

	d, err := ex.Discover(context.Background(), springfieldProperty())
	require.NoError(t, err)
	require.Len(t, d.Images, 2)
	assert.Equal(t, "Living room", d.Images[0].Caption)
}

func TestRedfinExtractor(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<div class="InlinePhotoPreviewDiv">
			<img src="https://ssl.cdn-redfin.com/photo/1/bigphoto/1_0.jpg">
		</div>
	</body></html>`

	ex, err := goquery.NewRedfinExtractor(fetcherReturning(t, "", html), "https://portal.test")
	require.NoError(t, err)
	assert.Equal(t, "redfin", ex.Name())

	d, err := ex.Discover(context.Background(), springfieldProperty())
	require.NoError(t, err)
	require.Len(t, d.Images, 1)
	assert.Equal(t, "https://ssl.cdn-redfin.com/photo/1/bigphoto/1_0.jpg", d.Images[0].URL)
}
