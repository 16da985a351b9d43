package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

// codeIllegalOperation - код ответа standalone mongod на транзакцию
const codeIllegalOperation = 20

// Transactor выполняет callback в многодокументной транзакции
type Transactor struct {
	client *mongo.Client
}

// NewTransactor создаёт транзактор поверх client
func NewTransactor(client *mongo.Client) *Transactor {
	return &Transactor{client: client}
}

// WithTransaction открывает сессию и выполняет fn в транзакции
// Драйвер может повторить fn при временной ошибке, fn должен быть повторяемым
func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	if err != nil {
		if isIllegalOperation(err) && !errors.Is(err, repository.ErrTransactionsUnsupported) {
			return fmt.Errorf("%w: %w", repository.ErrTransactionsUnsupported, err)
		}
		return err
	}
	return nil
}

func isIllegalOperation(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(codeIllegalOperation)
}

// Probe реализует StorageCapabilityProbe для MongoDB
type Probe struct {
	client     *mongo.Client
	transactor *Transactor
	col        *mongo.Collection
}

// NewProbe создаёт пробу, читающую из коллекции остатков
func NewProbe(client *mongo.Client, dbName string) *Probe {
	return &Probe{
		client:     client,
		transactor: NewTransactor(client),
		col:        client.Database(dbName).Collection(stockCollection),
	}
}

// helloResult - поля ответа hello / isMaster, нужные эвристике
type helloResult struct {
	SetName        string `bson:"setName"`
	Msg            string `bson:"msg"`
	MaxWireVersion int32  `bson:"maxWireVersion"`
}

// Wire-версии, начиная с которых есть транзакции: 4.0 для replica set, 4.2 для шардов
const (
	wireVersionReplicaSetTx = 7
	wireVersionShardedTx    = 8
)

// Topology спрашивает сервер о топологии без открытия транзакции
func (p *Probe) Topology(ctx context.Context) (repository.TopologyHint, error) {
	admin := p.client.Database("admin")

	var hello helloResult
	err := admin.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	if err != nil {
		// серверы до 4.4.2 знают только isMaster
		if legacyErr := admin.RunCommand(ctx, bson.D{{Key: "isMaster", Value: 1}}).Decode(&hello); legacyErr != nil {
			return repository.TopologyHint{}, fmt.Errorf("hello: %w", err)
		}
	}

	var build struct {
		Version string `bson:"version"`
	}
	_ = admin.RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&build)

	hint := repository.TopologyHint{Version: build.Version}
	switch {
	case hello.Msg == "isdbgrid":
		hint.Kind = repository.TopologySharded
		if hello.MaxWireVersion < wireVersionShardedTx {
			hint.Unsupported = true
			hint.Reason = fmt.Sprintf("sharded cluster %s predates transactions", build.Version)
		}
	case hello.SetName != "":
		hint.Kind = repository.TopologyReplicaSet
		if hello.MaxWireVersion < wireVersionReplicaSetTx {
			hint.Unsupported = true
			hint.Reason = fmt.Sprintf("replica set %s predates transactions", build.Version)
		}
	default:
		hint.Kind = repository.TopologyStandalone
		hint.Unsupported = true
		hint.Reason = "standalone server"
	}
	return hint, nil
}

// ProbeTransaction читает один документ в транзакции и коммитит
func (p *Probe) ProbeTransaction(ctx context.Context) error {
	return p.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		err := p.col.FindOne(ctx, bson.D{}).Err()
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
		return nil
	})
}
