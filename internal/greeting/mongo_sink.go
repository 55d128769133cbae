package greeting

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"greeter/internal/constants"
)

type mongoGreeting struct {
	ID                string               `bson:"_id"`
	ExternalReference string               `bson:"external_reference,omitempty"`
	To                string               `bson:"to"`
	From              string               `bson:"from"`
	Heading           string               `bson:"heading"`
	Message           string               `bson:"message"`
	Created           time.Time            `bson:"created"`
	EventsCreated     map[string]time.Time `bson:"events_created,omitempty"`
}

type MongoSink struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoSink(db *mongo.Database) *MongoSink {
	return &MongoSink{
		db:         db,
		collection: db.Collection(constants.MongoGreetingsCollection),
	}
}

func (s *MongoSink) Name() string {
	return constants.SinkTypeMongoDB
}

func (s *MongoSink) Store(ctx context.Context, g *Greeting) error {
	doc := mongoGreeting{
		ID:                g.ID,
		ExternalReference: g.ExternalReference,
		To:                g.To,
		From:              g.From,
		Heading:           g.Heading,
		Message:           g.Message,
		Created:           g.Created,
		EventsCreated:     g.Events(),
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return NewSinkError(s.Name(), OpStore, KindPersistence, fmt.Errorf("failed to insert greeting: %w", err))
	}
	return nil
}

func (s *MongoSink) All(ctx context.Context) ([]Greeting, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, NewSinkError(s.Name(), OpAll, KindPersistence, fmt.Errorf("failed to find greetings: %w", err))
	}
	defer cursor.Close(ctx)

	var docs []mongoGreeting
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, NewSinkError(s.Name(), OpAll, KindPersistence, fmt.Errorf("failed to decode greetings: %w", err))
	}

	greetings := make([]Greeting, 0, len(docs))
	for _, d := range docs {
		greetings = append(greetings, Greeting{
			ID:                d.ID,
			ExternalReference: d.ExternalReference,
			To:                d.To,
			From:              d.From,
			Heading:           d.Heading,
			Message:           d.Message,
			Created:           d.Created.UTC(),
			eventsCreated:     d.EventsCreated,
		})
	}
	return greetings, nil
}

func (s *MongoSink) CheckLiveness(ctx context.Context) error {
	if err := s.db.Client().Ping(ctx, nil); err != nil {
		return NewSinkError(s.Name(), OpPing, KindPersistence, err)
	}
	return nil
}
