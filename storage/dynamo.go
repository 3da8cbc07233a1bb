package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cfss-backend/models"
	"cfss-backend/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrVersionConflict = errors.New("project was modified by another session")
	ErrRevisionsFull   = errors.New("project revision list is full")
)

// DynamoAPI is the subset of the DynamoDB client used by ProjectStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// ProjectStore persists project documents keyed by id.
type ProjectStore struct {
	client  DynamoAPI
	table   string
	timeout time.Duration
	now     func() time.Time
}

func NewProjectStore(client DynamoAPI, table string, timeout time.Duration) *ProjectStore {
	return &ProjectStore{client: client, table: table, timeout: timeout, now: time.Now}
}

func (s *ProjectStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func (s *ProjectStore) Get(ctx context.Context, id string) (*models.Project, error) {
	ctx, cancel := utils.GetCallContext(ctx, s.timeout)
	defer cancel()

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrProjectNotFound
	}

	var project models.Project
	if err := attributevalue.UnmarshalMap(out.Item, &project); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", id, err)
	}
	return &project, nil
}

// Put writes the editable part of the document. cfssWindData, wallRevisions
// and windDataVersion only change through their own conditional updates: on
// an existing project they are taken from the stored item, and the put only
// lands if none of them moved since that read.
func (s *ProjectStore) Put(ctx context.Context, project *models.Project) error {
	existing, err := s.Get(ctx, project.ID)
	switch {
	case err == nil:
		project.CFSSWindData = existing.CFSSWindData
		project.WallRevisions = existing.WallRevisions
		project.WindDataVersion = existing.WindDataVersion
		project.CreatedAt = existing.CreatedAt
	case errors.Is(err, ErrProjectNotFound):
		existing = nil
		project.WindDataVersion = 0
	default:
		return err
	}
	now := s.now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	item, err := attributevalue.MarshalMap(project)
	if err != nil {
		return fmt.Errorf("encode project %s: %w", project.ID, err)
	}
	expr, err := expression.NewBuilder().WithCondition(putCondition(existing)).Build()
	if err != nil {
		return fmt.Errorf("build project put: %w", err)
	}

	ctx, cancel := utils.GetCallContext(ctx, s.timeout)
	defer cancel()
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.table),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	var conditionFailed *types.ConditionalCheckFailedException
	switch {
	case err == nil:
		return nil
	case errors.As(err, &conditionFailed):
		return ErrVersionConflict
	default:
		return fmt.Errorf("put project %s: %w", project.ID, err)
	}
}

// putCondition pins the item state Put read: absent for a new project,
// otherwise the same wind-data version and revision count.
func putCondition(existing *models.Project) expression.ConditionBuilder {
	id := expression.Name("id")
	if existing == nil {
		return expression.AttributeNotExists(id)
	}

	versionName := expression.Name("windDataVersion")
	version := versionName.Equal(expression.Value(existing.WindDataVersion))
	if existing.WindDataVersion == 0 {
		version = version.Or(expression.AttributeNotExists(versionName))
	}

	revisions := expression.Name("wallRevisions")
	count := revisions.Size().Equal(expression.Value(len(existing.WallRevisions)))
	if len(existing.WallRevisions) == 0 {
		count = count.Or(expression.AttributeNotExists(revisions))
	}
	return expression.AttributeExists(id).And(version, count)
}

// UpdateWindData replaces cfssWindData if the stored windDataVersion still
// equals expected, and returns the new version.
func (s *ProjectStore) UpdateWindData(ctx context.Context, id string, data models.CFSSWindData, expected int64) (int64, error) {
	next := expected + 1
	update := expression.Set(expression.Name("cfssWindData"), expression.Value(data)).
		Set(expression.Name("windDataVersion"), expression.Value(next)).
		Set(expression.Name("updatedAt"), expression.Value(s.now().UTC()))

	version := expression.Name("windDataVersion").Equal(expression.Value(expected))
	if expected == 0 {
		version = version.Or(expression.AttributeNotExists(expression.Name("windDataVersion")))
	}
	cond := expression.AttributeExists(expression.Name("id")).And(version)

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return 0, fmt.Errorf("build wind data update: %w", err)
	}

	if err := s.conditionalUpdate(ctx, id, expr, ErrVersionConflict); err != nil {
		return 0, err
	}
	return next, nil
}

// AppendRevision adds rev to wallRevisions while the list holds fewer than
// limit entries.
func (s *ProjectStore) AppendRevision(ctx context.Context, id string, rev models.Revision, limit int) error {
	revisions := expression.Name("wallRevisions")
	update := expression.Set(revisions, expression.ListAppend(
		expression.IfNotExists(revisions, expression.Value([]models.Revision{})),
		expression.Value([]models.Revision{rev}),
	)).Set(expression.Name("updatedAt"), expression.Value(s.now().UTC()))

	cond := expression.AttributeExists(expression.Name("id")).And(
		expression.Or(
			expression.AttributeNotExists(revisions),
			revisions.Size().LessThan(expression.Value(limit)),
		),
	)

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("build revision update: %w", err)
	}
	return s.conditionalUpdate(ctx, id, expr, ErrRevisionsFull)
}

// conditionalUpdate runs expr against the item. A failed condition maps to
// ErrProjectNotFound when no item exists and to onConflict otherwise.
func (s *ProjectStore) conditionalUpdate(ctx context.Context, id string, expr expression.Expression, onConflict error) error {
	ctx, cancel := utils.GetCallContext(ctx, s.timeout)
	defer cancel()

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(s.table),
		Key:                                 s.key(id),
		UpdateExpression:                    expr.Update(),
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return nil
	}

	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		if len(conditionFailed.Item) == 0 {
			return ErrProjectNotFound
		}
		return onConflict
	}
	return fmt.Errorf("update project %s: %w", id, err)
}
