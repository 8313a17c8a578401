package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autoworks/jobcard-service/internal/core/domain"
)

const collectionJobCards = "job_cards"

type JobCardRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewJobCardRepository(db *mongo.Database) *JobCardRepository {
	return &JobCardRepository{col: db.Collection(collectionJobCards), now: time.Now}
}

type jobCardDoc struct {
	ID            string    `bson:"_id"`
	JobCardNumber string    `bson:"job_card_number"`
	ChassisNumber *string   `bson:"chassis_number"`
	ImagePath     string    `bson:"image_path"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func (d jobCardDoc) toDomain() *domain.JobCard {
	return &domain.JobCard{
		ID:            d.ID,
		JobCardNumber: d.JobCardNumber,
		ChassisNumber: d.ChassisNumber,
		ImagePath:     d.ImagePath,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

var byID = bson.D{{Key: "_id", Value: 1}}

// Create inserts a job card and returns it as re-read from the collection.
func (r *JobCardRepository) Create(ctx context.Context, in domain.NewJobCard) (*domain.JobCard, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := newID()
	if err != nil {
		return nil, domain.Unexpected("generate job card id", err)
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := jobCardDoc{
		ID:            id,
		JobCardNumber: in.JobCardNumber,
		ChassisNumber: in.ChassisNumber,
		ImagePath:     in.ImagePath,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, domain.Unexpected("insert job card", err)
	}

	created, err := r.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, domain.Unexpected("re-read created job card", nil)
	}
	return created, nil
}

func (r *JobCardRepository) List(ctx context.Context) ([]domain.JobCard, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(byID))
	if err != nil {
		return nil, domain.Unexpected("list job cards", err)
	}
	defer cur.Close(ctx)

	out := []domain.JobCard{}
	for cur.Next(ctx) {
		var doc jobCardDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, domain.Unexpected("decode job card", err)
		}
		out = append(out, *doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, domain.Unexpected("list job cards", err)
	}
	return out, nil
}

func (r *JobCardRepository) FindByID(ctx context.Context, id string) (*domain.JobCard, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *JobCardRepository) FindByJobCardNumber(ctx context.Context, number string) (*domain.JobCard, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.findOne(ctx, bson.M{"job_card_number": number})
}

func (r *JobCardRepository) FindByChassisNumber(ctx context.Context, chassis string) (*domain.JobCard, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.findOne(ctx, bson.M{"chassis_number": chassis})
}

// findOne returns the first match by _id, or nil when nothing matches.
func (r *JobCardRepository) findOne(ctx context.Context, filter bson.M) (*domain.JobCard, error) {
	var doc jobCardDoc
	err := r.col.FindOne(ctx, filter, options.FindOne().SetSort(byID)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, domain.Unexpected("find job card", err)
	}
	return doc.toDomain(), nil
}

// Update sets the supplied fields and advances updated_at with $max so it
// never moves backward.
func (r *JobCardRepository) Update(ctx context.Context, card *domain.JobCard, patch domain.JobCardPatch) (*domain.JobCard, error) {
	if card == nil || card.ID == "" {
		return nil, domain.Unexpected("update job card without id", nil)
	}
	if patch.IsEmpty() {
		return card, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := updateDocument(patch, r.now().UTC().Truncate(time.Millisecond))

	var doc jobCardDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": card.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.Unexpected("job card "+card.ID+" no longer exists", nil)
		}
		return nil, domain.Unexpected("update job card", err)
	}

	updated := doc.toDomain()
	*card = *updated
	return updated, nil
}

// updateDocument sets only the fields present in patch. A null chassis_number
// is written as null. updated_at only moves forward.
func updateDocument(patch domain.JobCardPatch, now time.Time) bson.M {
	set := bson.M{}
	if v, ok := patch.JobCardNumber.Value(); ok {
		set["job_card_number"] = v
	}
	if patch.ChassisNumber.IsPresent() {
		set["chassis_number"] = patch.ChassisNumber.Ptr()
	}
	if v, ok := patch.ImagePath.Value(); ok {
		set["image_path"] = v
	}
	return bson.M{
		"$set": set,
		"$max": bson.M{"updated_at": now},
	}
}

// CountByImagePath reports how many job cards reference path.
func (r *JobCardRepository) CountByImagePath(ctx context.Context, path string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"image_path": path})
	if err != nil {
		return 0, domain.Unexpected("count job card images", err)
	}
	return int(n), nil
}

// Delete removes the job card. A missing id is not an error.
func (r *JobCardRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return domain.Unexpected("delete job card", err)
	}
	return nil
}
