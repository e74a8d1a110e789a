package media

import (
	"bytes"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format

	"github.com/buckket/go-blurhash"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/webp" // Register WebP format
)

const (
	// BlurHash 分量数
	componentsX = 4
	componentsY = 4
)

// ErrEmptyImage 图片数据为空
var ErrEmptyImage = errors.New("image data is empty")

// ImageInfo 图片基本信息
type ImageInfo struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	BlurHash string `json:"blurHash"`
}

// ProcessImage 解码图片，返回尺寸与 BlurHash。解码失败说明上传内容不是有效图片。
func ProcessImage(imageData []byte) (*ImageInfo, error) {
	if len(imageData) == 0 {
		return nil, ErrEmptyImage
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	bounds := img.Bounds()

	blurhashStr, err := blurhash.Encode(componentsX, componentsY, img)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode blurhash")
	}

	return &ImageInfo{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Format:   format,
		BlurHash: blurhashStr,
	}, nil
}
