package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

//go:embed templates/certificate.html
var templateFS embed.FS

var certificateTemplate = template.Must(template.ParseFS(templateFS, "templates/certificate.html"))

type CertificateStore interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindCertificateByAttempt(ctx context.Context, attemptID uuid.UUID) (*models.Certificate, error)
	CreateCertificate(ctx context.Context, certificate *models.Certificate) error
	ListCertificates(ctx context.Context, userID uuid.UUID) ([]models.Certificate, error)
}

type Renderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

type Uploader interface {
	UploadRaw(ctx context.Context, data []byte, publicID string) (string, error)
}

type CertificateService struct {
	store    CertificateStore
	quizzes  QuizStore
	attempts AttemptStore
	renderer Renderer
	uploader Uploader
	now      func() time.Time
}

func NewCertificateService(store CertificateStore, quizzes QuizStore, attempts AttemptStore, renderer Renderer, uploader Uploader) *CertificateService {
	return &CertificateService{
		store:    store,
		quizzes:  quizzes,
		attempts: attempts,
		renderer: renderer,
		uploader: uploader,
		now:      time.Now,
	}
}

// Issue returns the certificate of a passed attempt, generating and uploading
// it on first request.
func (s *CertificateService) Issue(ctx context.Context, requester Requester, attemptID uuid.UUID) (*models.Certificate, error) {
	attempt, err := s.attempts.FindByID(ctx, attemptID)
	if err != nil {
		return nil, storeError(err, "Attempt not found")
	}
	if !attempt.IsOwnedBy(requester.ID) {
		return nil, forbidden("You can only request certificates for your own attempts")
	}
	if attempt.Status != models.AttemptCompleted || attempt.Passed == nil || !*attempt.Passed {
		return nil, conflict("Certificates are only issued for passed attempts")
	}

	existing, err := s.store.FindCertificateByAttempt(ctx, attempt.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, internal("Failed to look up certificate", err)
	}

	if s.renderer == nil || s.uploader == nil {
		return nil, internal("Certificate generation is not configured", nil)
	}

	user, err := s.store.FindUserByID(ctx, attempt.UserID)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	quiz, err := s.quizzes.FindQuizByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, storeError(err, "Quiz not found")
	}

	certificate := &models.Certificate{
		ID:         uuid.New(),
		UserID:     user.ID,
		AttemptID:  attempt.ID,
		QuizID:     quiz.ID,
		QuizTitle:  quiz.Title,
		Percentage: derefInt(attempt.Percentage),
		IssuedAt:   s.now().UTC(),
	}

	html, err := renderCertificateHTML(user.FullName, certificate)
	if err != nil {
		return nil, internal("Failed to render certificate", err)
	}
	pdf, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		log.Printf("🔥 Failed to generate PDF for attempt %s: %v", attempt.ID, err)
		return nil, internal("Failed to generate certificate", err)
	}
	url, err := s.uploader.UploadRaw(ctx, pdf, fmt.Sprintf("certificates/%s_%s", user.ID, certificate.ID))
	if err != nil {
		log.Printf("🔥 Failed to upload certificate for attempt %s: %v", attempt.ID, err)
		return nil, internal("Failed to upload certificate", err)
	}
	certificate.CertificateURL = url

	if err := s.store.CreateCertificate(ctx, certificate); err != nil {
		// Lost a race with a concurrent request for the same attempt.
		if winner, findErr := s.store.FindCertificateByAttempt(ctx, attempt.ID); findErr == nil {
			return winner, nil
		}
		return nil, internal("Failed to save certificate", err)
	}

	log.Printf("✅ Generated certificate '%s' for user %s.", quiz.Title, user.ID)
	return certificate, nil
}

func (s *CertificateService) ListMine(ctx context.Context, requester Requester) ([]models.Certificate, error) {
	certificates, err := s.store.ListCertificates(ctx, requester.ID)
	if err != nil {
		return nil, internal("Failed to list certificates", err)
	}
	return certificates, nil
}

func renderCertificateHTML(fullName string, certificate *models.Certificate) (string, error) {
	data := struct {
		FullName      string
		QuizTitle     string
		Percentage    int
		IssuedOn      string
		CertificateID string
	}{
		FullName:      fullName,
		QuizTitle:     certificate.QuizTitle,
		Percentage:    certificate.Percentage,
		IssuedOn:      certificate.IssuedAt.Format("January 2, 2006"),
		CertificateID: certificate.ID.String(),
	}

	var rendered bytes.Buffer
	if err := certificateTemplate.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// ChromeRenderer prints HTML to PDF through a headless Chrome.
type ChromeRenderer struct {
	Timeout time.Duration
}

func (r ChromeRenderer) RenderPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx, cancelBrowser := chromedp.NewContext(ctx)
	defer cancelBrowser()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).WithLandscape(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(cloudinaryURL, folder string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return &CloudinaryUploader{cld: cld, folder: folder}, nil
}

func (u *CloudinaryUploader) UploadRaw(ctx context.Context, data []byte, publicID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := u.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       u.folder,
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}
	return result.SecureURL, nil
}
