package jobs

import (
	"bytes"
	"context"
	"html/template"
	"log"
	"time"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/google/uuid"
)

var reminderTemplate = template.Must(template.New("reminder").Parse(
	`<h1>Your quiz is waiting</h1><p>Hi {{.Name}},</p><p>You started <b>{{.Title}}</b> an hour ago and have answered {{.Answered}} of {{.Total}} questions.</p><p><a href="{{.Link}}">Pick up where you left off</a></p>`,
))

type reminderData struct {
	Name     string
	Title    string
	Answered int
	Total    int
	Link     string
}

type InProgressLister interface {
	ListInProgressStartedBetween(ctx context.Context, from, to time.Time) ([]models.Attempt, error)
}

type UserFinder interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type QuizFinder interface {
	FindQuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
}

type Mailer interface {
	Send(ctx context.Context, toName, toEmail, subject, htmlContent string) error
}

// AttemptReminder e-mails users whose attempt has been open for about an
// hour. The window matches the five minute schedule so each attempt is
// picked up once.
type AttemptReminder struct {
	Attempts    InProgressLister
	Users       UserFinder
	Quizzes     QuizFinder
	Mailer      Mailer
	FrontendURL string
	Now         func() time.Time
}

func (r *AttemptReminder) Run() {
	log.Println("Running job: SendAttemptReminders...")

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	current := now().UTC()
	lowerBound := current.Add(-65 * time.Minute)
	upperBound := current.Add(-60 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	attempts, err := r.Attempts.ListInProgressStartedBetween(ctx, lowerBound, upperBound)
	if err != nil {
		log.Printf("🔥 Error checking for unfinished attempts: %v", err)
		return
	}

	for _, attempt := range attempts {
		user, err := r.Users.FindUserByID(ctx, attempt.UserID)
		if err != nil {
			log.Printf("Skipping reminder for attempt %s: %v", attempt.ID, err)
			continue
		}
		quiz, err := r.Quizzes.FindQuizByID(ctx, attempt.QuizID)
		if err != nil {
			log.Printf("Skipping reminder for attempt %s: %v", attempt.ID, err)
			continue
		}

		var body bytes.Buffer
		err = reminderTemplate.Execute(&body, reminderData{
			Name:     user.FullName,
			Title:    quiz.Title,
			Answered: len(attempt.Answers),
			Total:    len(quiz.Questions),
			Link:     r.FrontendURL + "/attempts/" + attempt.ID.String(),
		})
		if err != nil {
			log.Printf("🔥 Failed to render reminder for attempt %s: %v", attempt.ID, err)
			continue
		}
		if err := r.Mailer.Send(ctx, user.FullName, user.Email, "Finish your quiz: "+quiz.Title, body.String()); err != nil {
			log.Printf("🔥 Failed to send reminder for attempt %s: %v", attempt.ID, err)
			continue
		}
		log.Printf("Sent reminder for attempt ID: %s", attempt.ID)
	}
}
