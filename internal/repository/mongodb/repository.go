package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

// Repository defines the interface for reconciliation report storage.
type Repository interface {
	SaveReconciliationReport(ctx context.Context, report models.ReconciliationReport) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

type lineDocument struct {
	OriginType    string               `bson:"origin_type"`
	OriginID      int                  `bson:"origin_id"`
	Label         string               `bson:"label"`
	NominalKg     primitive.Decimal128 `bson:"nominal_kg"`
	AllocatedKg   primitive.Decimal128 `bson:"allocated_kg"`
	AvailableKg   primitive.Decimal128 `bson:"available_kg"`
	OverAllocated bool                 `bson:"over_allocated"`
}

type reportDocument struct {
	GeneratedAt   time.Time      `bson:"generated_at"`
	Lines         []lineDocument `bson:"lines"`
	OverAllocated int            `bson:"over_allocated"`
	CreatedAt     time.Time      `bson:"created_at"`
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "reconciliation_reports",
	}, nil
}

// SaveReconciliationReport archives a reconciliation report.
func (r *MongoDBRepository) SaveReconciliationReport(ctx context.Context, report models.ReconciliationReport) error {
	doc, err := toDocument(report)
	if err != nil {
		return err
	}

	collection := r.client.Database(r.dbName).Collection(r.collName)
	if _, err := collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert reconciliation report: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func toDocument(report models.ReconciliationReport) (reportDocument, error) {
	doc := reportDocument{
		GeneratedAt:   report.GeneratedAt,
		OverAllocated: report.OverAllocated,
		CreatedAt:     report.CreatedAt,
		Lines:         make([]lineDocument, 0, len(report.Lines)),
	}

	for _, l := range report.Lines {
		nominal, err := toDecimal128(l.NominalKg)
		if err != nil {
			return reportDocument{}, err
		}
		allocated, err := toDecimal128(l.AllocatedKg)
		if err != nil {
			return reportDocument{}, err
		}
		available, err := toDecimal128(l.AvailableKg)
		if err != nil {
			return reportDocument{}, err
		}

		doc.Lines = append(doc.Lines, lineDocument{
			OriginType:    string(l.Origin.Type),
			OriginID:      l.Origin.ID,
			Label:         l.Label,
			NominalKg:     nominal,
			AllocatedKg:   allocated,
			AvailableKg:   available,
			OverAllocated: l.OverAllocated,
		})
	}

	return doc, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert %s to decimal128: %w", d, err)
	}
	return v, nil
}
