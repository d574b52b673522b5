package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/anjiri1684/quizmaster/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type optionDocument struct {
	ID       string `bson:"id"`
	Position int    `bson:"position"`
	Text     string `bson:"text"`
	Correct  bool   `bson:"correct"`
}

type questionDocument struct {
	ID       string           `bson:"id"`
	Position int              `bson:"position"`
	Text     string           `bson:"text"`
	Type     string           `bson:"type"`
	Options  []optionDocument `bson:"options"`
}

type quizDocument struct {
	ID               string             `bson:"_id"`
	Title            string             `bson:"title"`
	Description      string             `bson:"description"`
	Category         string             `bson:"category"`
	CoverImageURL    *string            `bson:"cover_image_url,omitempty"`
	PassPercentage   int                `bson:"pass_percentage"`
	TimeLimitMinutes int                `bson:"time_limit_minutes"`
	IsPublished      bool               `bson:"is_published"`
	CreatedBy        string             `bson:"created_by"`
	Questions        []questionDocument `bson:"questions"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func quizToDocument(quiz *models.Quiz) quizDocument {
	doc := quizDocument{
		ID:               quiz.ID.String(),
		Title:            quiz.Title,
		Description:      quiz.Description,
		Category:         quiz.Category,
		CoverImageURL:    quiz.CoverImageURL,
		PassPercentage:   quiz.EffectivePassPercentage(),
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		IsPublished:      quiz.IsPublished,
		CreatedBy:        quiz.CreatedBy.String(),
		Questions:        make([]questionDocument, 0, len(quiz.Questions)),
		CreatedAt:        quiz.CreatedAt,
		UpdatedAt:        quiz.UpdatedAt,
	}
	for _, question := range quiz.Questions {
		if question.ID == uuid.Nil {
			question.ID = uuid.New()
		}
		questionType := question.Type
		if questionType == "" {
			questionType = models.QuestionMultipleChoice
		}
		qd := questionDocument{
			ID:       question.ID.String(),
			Position: question.Position,
			Text:     question.Text,
			Type:     string(questionType),
			Options:  make([]optionDocument, 0, len(question.Options)),
		}
		for _, option := range question.Options {
			if option.ID == uuid.Nil {
				option.ID = uuid.New()
			}
			qd.Options = append(qd.Options, optionDocument{
				ID:       option.ID.String(),
				Position: option.Position,
				Text:     option.Text,
				Correct:  option.Correct,
			})
		}
		doc.Questions = append(doc.Questions, qd)
	}
	return doc
}

func (d *quizDocument) model() (*models.Quiz, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return nil, err
	}
	createdBy, err := parseID(d.CreatedBy)
	if err != nil {
		return nil, err
	}
	quiz := &models.Quiz{
		ID:               id,
		Title:            d.Title,
		Description:      d.Description,
		Category:         d.Category,
		CoverImageURL:    d.CoverImageURL,
		PassPercentage:   d.PassPercentage,
		TimeLimitMinutes: d.TimeLimitMinutes,
		IsPublished:      d.IsPublished,
		CreatedBy:        createdBy,
		Questions:        make([]*models.Question, 0, len(d.Questions)),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	for _, qd := range d.Questions {
		questionID, err := parseID(qd.ID)
		if err != nil {
			return nil, err
		}
		question := &models.Question{
			ID:       questionID,
			QuizID:   id,
			Position: qd.Position,
			Text:     qd.Text,
			Type:     models.QuestionType(qd.Type),
		}
		for _, od := range qd.Options {
			optionID, err := parseID(od.ID)
			if err != nil {
				return nil, err
			}
			question.Options = append(question.Options, &models.AnswerOption{
				ID:         optionID,
				QuestionID: questionID,
				Position:   od.Position,
				Text:       od.Text,
				Correct:    od.Correct,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz, nil
}

type QuizStore struct {
	Col *mongo.Collection
	now func() time.Time
}

func NewQuizStore(db *mongo.Database) *QuizStore {
	return &QuizStore{Col: db.Collection(quizzesCollection), now: time.Now}
}

func (r *QuizStore) FindQuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var doc quizDocument
	err := r.Col.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model()
}

func (r *QuizStore) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == uuid.Nil {
		quiz.ID = uuid.New()
	}
	now := r.now().UTC()
	quiz.CreatedAt, quiz.UpdatedAt = now, now
	_, err := r.Col.InsertOne(ctx, quizToDocument(quiz))
	return err
}

func (r *QuizStore) ReplaceQuiz(ctx context.Context, quiz *models.Quiz) error {
	doc := quizToDocument(quiz)
	res, err := r.Col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": bson.M{
		"title":              doc.Title,
		"description":        doc.Description,
		"category":           doc.Category,
		"cover_image_url":    doc.CoverImageURL,
		"pass_percentage":    doc.PassPercentage,
		"time_limit_minutes": doc.TimeLimitMinutes,
		"is_published":       doc.IsPublished,
		"questions":          doc.Questions,
		"updated_at":         r.now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *QuizStore) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	res, err := r.Col.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": bson.M{
		"is_published": published,
		"updated_at":   r.now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *QuizStore) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	res, err := r.Col.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *QuizStore) ListQuizzes(ctx context.Context, filter models.QuizFilter) ([]models.Quiz, int64, error) {
	query := bson.M{}
	if filter.PublishedOnly {
		query["is_published"] = true
	}
	if filter.CreatedBy != nil {
		query["created_by"] = filter.CreatedBy.String()
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	total, err := r.Col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip(page, limit)).
		SetLimit(int64(limit))
	cursor, err := r.Col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var docs []quizDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	quizzes := make([]models.Quiz, 0, len(docs))
	for i := range docs {
		quiz, err := docs[i].model()
		if err != nil {
			return nil, 0, err
		}
		quizzes = append(quizzes, *quiz)
	}
	return quizzes, total, nil
}
