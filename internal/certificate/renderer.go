// Package certificate renders participation certificates for verified
// registrants. Output is deterministic given the registrant snapshot and
// issue date: the PDF and PNG are pure functions of their inputs, so the
// accepted regenerate-on-race policy only ever wastes work, never diverges.
package certificate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"

	"gatepass/internal/registrant/models"
	id "gatepass/pkg/domain"
	"gatepass/pkg/requestcontext"
)

// Paths references the two rendered artifacts.
type Paths struct {
	Document string
	Image    string
}

// Renderer writes certificate artifacts under a fixed directory.
type Renderer struct {
	dir       string
	eventName string
}

// New constructs a renderer rooted at dir (usually <uploads>/certificates).
func New(dir, eventName string) *Renderer {
	return &Renderer{dir: dir, eventName: eventName}
}

// DocumentFileName returns the stable artifact name for the PDF.
func DocumentFileName(registrantID id.RegistrantID) string {
	return registrantID.String() + "-certificate.pdf"
}

// ImageFileName returns the stable artifact name for the PNG.
func ImageFileName(registrantID id.RegistrantID) string {
	return registrantID.String() + "-certificate.png"
}

// Render produces both artifacts, in parallel, and returns their paths.
// If either render fails the whole call fails and no paths are reported:
// an identity must never claim an artifact it does not have.
func (r *Renderer) Render(ctx context.Context, reg *models.Registrant) (Paths, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create certificates dir: %w", err)
	}

	paths := Paths{
		Document: filepath.Join(r.dir, DocumentFileName(reg.ID)),
		Image:    filepath.Join(r.dir, ImageFileName(reg.ID)),
	}
	issued := requestcontext.Now(ctx).Format("02 Jan 2006")

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return r.renderPDF(paths.Document, reg, issued) })
	g.Go(func() error { return r.renderPNG(paths.Image, reg, issued) })
	if err := g.Wait(); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

// qrArtifactPath maps the stored URL-style ref ("/uploads/qrcodes/<x>.png")
// onto the qrcodes directory next to the certificates root, where the
// artifact actually lives on disk.
func (r *Renderer) qrArtifactPath(ref string) string {
	if ref == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(r.dir), "qrcodes", filepath.Base(ref))
}

func (r *Renderer) renderPDF(path string, reg *models.Registrant, issued string) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	w, h := pdf.GetPageSize()

	// Parchment background with a plain border.
	pdf.SetFillColor(0xfd, 0xf6, 0xe3)
	pdf.Rect(0, 0, w, h, "F")
	pdf.SetDrawColor(0x33, 0x33, 0x33)
	pdf.Rect(8, 8, w-16, h-16, "D")

	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetTextColor(0x2c, 0x3e, 0x50)
	pdf.SetY(30)
	pdf.CellFormat(0, 14, "Certificate of Participation", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 20)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(10)
	pdf.CellFormat(0, 10, "This is proudly presented to:", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(0xe7, 0x4c, 0x3c)
	pdf.Ln(4)
	pdf.CellFormat(0, 12, reg.Name, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)
	line := fmt.Sprintf("For participating in %s", r.eventName)
	if reg.Designation != "" {
		line = fmt.Sprintf("For participating as %s in %s", reg.Designation, r.eventName)
	}
	pdf.CellFormat(0, 10, line, "", 1, "C", false, 0, "")
	if reg.City != "" && reg.State != "" {
		pdf.CellFormat(0, 10, fmt.Sprintf("%s, %s", reg.City, reg.State), "", 1, "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(30, h-30, "Date: "+issued)
	pdf.Text(w-80, h-30, "Authorized Signature")

	if qrPath := r.qrArtifactPath(reg.QRImagePath); qrPath != "" {
		if _, err := os.Stat(qrPath); err == nil {
			pdf.ImageOptions(qrPath, 20, h-75, 35, 35, false,
				fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
	}

	return pdf.OutputFileAndClose(path)
}

const (
	pngWidth  = 1050
	pngHeight = 742
)

func (r *Renderer) renderPNG(path string, reg *models.Registrant, issued string) error {
	img := image.NewRGBA(image.Rect(0, 0, pngWidth, pngHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{0xfd, 0xf6, 0xe3, 0xff}}, image.Point{}, draw.Src)
	drawBorder(img, 20, color.RGBA{0x33, 0x33, 0x33, 0xff})

	drawCentered(img, 120, "Certificate of Participation", color.RGBA{0x2c, 0x3e, 0x50, 0xff})
	drawCentered(img, 220, "This is proudly presented to:", color.Black)
	drawCentered(img, 300, reg.Name, color.RGBA{0xe7, 0x4c, 0x3c, 0xff})
	line := "For participating in " + r.eventName
	if reg.Designation != "" {
		line = "For participating as " + reg.Designation + " in " + r.eventName
	}
	drawCentered(img, 400, line, color.Black)
	drawText(img, 80, pngHeight-80, "Date: "+issued, color.Black)
	drawText(img, pngWidth-320, pngHeight-80, "Authorized Signature", color.Black)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create certificate image: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode certificate image: %w", err)
	}
	return nil
}

func drawBorder(img *image.RGBA, inset int, c color.Color) {
	b := img.Bounds()
	for x := b.Min.X + inset; x < b.Max.X-inset; x++ {
		img.Set(x, b.Min.Y+inset, c)
		img.Set(x, b.Max.Y-inset-1, c)
	}
	for y := b.Min.Y + inset; y < b.Max.Y-inset; y++ {
		img.Set(b.Min.X+inset, y, c)
		img.Set(b.Max.X-inset-1, y, c)
	}
}

func drawCentered(img *image.RGBA, y int, text string, c color.Color) {
	width := font.MeasureString(basicfont.Face7x13, text).Ceil()
	drawText(img, (pngWidth-width)/2, y, text, c)
}

func drawText(img *image.RGBA, x, y int, text string, c color.Color) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
