// Package dynamo persists document records in a single DynamoDB table.
//
// Layout:
//
//	PK=DOC#<id>                          SK=META   the document record
//	PK=SLOT#<owner>#<category>#<type>    SK=SLOT   pointer to the slot's live record
//
// Records carry OwnerKey=USER#<owner> for the owner_index GSI. Inserts write
// the record, move the slot pointer and delete superseded records in one
// TransactWriteItems call.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"propverify/internal/catalog"
	"propverify/internal/documents/models"
	"propverify/internal/platform/awsutil"
	id "propverify/pkg/domain"
	"propverify/pkg/platform/sentinel"
)

const (
	ownerIndex = "owner_index"
	metaSK     = "META"
	slotSK     = "SLOT"
)

// API is the subset of the DynamoDB client the store calls.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type Store struct {
	db    API
	table string
}

func New(db API, table string) *Store {
	return &Store{db: db, table: table}
}

// record is the stored shape of a document.
type record struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	OwnerKey string `dynamodbav:"owner_key"`
	OwnerSK  string `dynamodbav:"owner_sk"`

	DocumentID  string     `dynamodbav:"document_id"`
	OwnerID     string     `dynamodbav:"owner_id"`
	Role        string     `dynamodbav:"role"`
	Category    string     `dynamodbav:"category"`
	DocType     string     `dynamodbav:"doc_type"`
	FileName    string     `dynamodbav:"file_name"`
	StoragePath string     `dynamodbav:"storage_path"`
	URL         string     `dynamodbav:"url"`
	SizeBytes   int64      `dynamodbav:"size_bytes"`
	MimeType    string     `dynamodbav:"mime_type"`
	Status      string     `dynamodbav:"status"`
	Score       int        `dynamodbav:"score"`
	Feedback    []string   `dynamodbav:"feedback"`
	Verified    bool       `dynamodbav:"verified"`
	VerifiedAt  *time.Time `dynamodbav:"verified_at,omitempty"`
	UploadedAt  time.Time  `dynamodbav:"uploaded_at"`
	UpdatedAt   time.Time  `dynamodbav:"updated_at"`
}

type slotPointer struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	DocumentID string `dynamodbav:"document_id"`
}

func docKey(docID id.DocumentID) string { return "DOC#" + docID.String() }

func ownerKey(owner id.UserID) string { return "USER#" + owner.String() }

func slotKey(owner id.UserID, category catalog.CategoryKey, docType string) string {
	return strings.Join([]string{"SLOT", owner.String(), string(category), docType}, "#")
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func toRecord(doc *models.Document) record {
	return record{
		PK:          docKey(doc.ID),
		SK:          metaSK,
		OwnerKey:    ownerKey(doc.OwnerID),
		OwnerSK:     doc.UploadedAt.UTC().Format(time.RFC3339Nano) + "#" + doc.ID.String(),
		DocumentID:  doc.ID.String(),
		OwnerID:     doc.OwnerID.String(),
		Role:        doc.Role.String(),
		Category:    string(doc.Category),
		DocType:     doc.DocType,
		FileName:    doc.FileName,
		StoragePath: doc.StoragePath,
		URL:         doc.URL,
		SizeBytes:   doc.SizeBytes,
		MimeType:    doc.MimeType,
		Status:      string(doc.Status),
		Score:       doc.Score,
		Feedback:    doc.Feedback,
		Verified:    doc.Verified,
		VerifiedAt:  doc.VerifiedAt,
		UploadedAt:  doc.UploadedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

func (r record) toDocument() (*models.Document, error) {
	docID, err := id.ParseDocumentID(r.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("stored document id %q: %w", r.DocumentID, err)
	}
	status := models.Status(r.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("stored document %s has unknown status %q", r.DocumentID, r.Status)
	}
	feedback := r.Feedback
	if feedback == nil {
		feedback = []string{}
	}
	return &models.Document{
		ID:          docID,
		OwnerID:     id.UserID(r.OwnerID),
		Role:        id.Role(r.Role),
		Category:    catalog.CategoryKey(r.Category),
		DocType:     r.DocType,
		FileName:    r.FileName,
		StoragePath: r.StoragePath,
		URL:         r.URL,
		SizeBytes:   r.SizeBytes,
		MimeType:    r.MimeType,
		Status:      status,
		Score:       r.Score,
		Feedback:    feedback,
		Verified:    r.Verified,
		VerifiedAt:  r.VerifiedAt,
		UploadedAt:  r.UploadedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

// Insert writes doc, points the slot at it and deletes superseded records.
// The slot pointer may only move away from a record listed in supersedes,
// so two concurrent uploads cannot both win.
func (s *Store) Insert(ctx context.Context, doc *models.Document, supersedes []id.DocumentID) error {
	item, err := attributevalue.MarshalMap(toRecord(doc))
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	pointer, err := attributevalue.MarshalMap(slotPointer{
		PK:         slotKey(doc.OwnerID, doc.Category, doc.DocType),
		SK:         slotSK,
		DocumentID: doc.ID.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal slot pointer: %w", err)
	}

	slotPut := &types.Put{
		TableName:           aws.String(s.table),
		Item:                pointer,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}
	if len(supersedes) > 0 {
		names := make([]string, len(supersedes))
		values := make(map[string]types.AttributeValue, len(supersedes))
		for i, old := range supersedes {
			placeholder := fmt.Sprintf(":old%d", i)
			names[i] = placeholder
			values[placeholder] = &types.AttributeValueMemberS{Value: old.String()}
		}
		slotPut.ConditionExpression = aws.String("attribute_not_exists(PK) OR document_id IN (" + strings.Join(names, ", ") + ")")
		slotPut.ExpressionAttributeValues = values
	}

	items := []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:           aws.String(s.table),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		}},
		{Put: slotPut},
	}
	for _, old := range supersedes {
		items = append(items, types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(s.table),
			Key:       key(docKey(old), metaSK),
		}})
	}

	_, err = s.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	return awsutil.MapError(err, "insert document")
}

func (s *Store) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(docKey(docID), metaSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, awsutil.MapError(err, "get document")
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("document %s: %w", docID, sentinel.ErrNotFound)
	}
	var r record
	if err := attributevalue.UnmarshalMap(out.Item, &r); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return r.toDocument()
}

// FindBySlot follows the slot pointer. A pointer to a missing record is
// treated as an empty slot.
func (s *Store) FindBySlot(ctx context.Context, owner id.UserID, category catalog.CategoryKey, docType string) ([]*models.Document, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(slotKey(owner, category, docType), slotSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, awsutil.MapError(err, "get slot pointer")
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var pointer slotPointer
	if err := attributevalue.UnmarshalMap(out.Item, &pointer); err != nil {
		return nil, fmt.Errorf("unmarshal slot pointer: %w", err)
	}
	docID, err := id.ParseDocumentID(pointer.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("slot pointer: %w", err)
	}
	doc, err := s.FindByID(ctx, docID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []*models.Document{doc}, nil
}

func (s *Store) ListByOwner(ctx context.Context, owner id.UserID) ([]*models.Document, error) {
	var docs []*models.Document
	paginator := dynamodb.NewQueryPaginator(s.db, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(ownerIndex),
		KeyConditionExpression: aws.String("owner_key = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: ownerKey(owner)},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsutil.MapError(err, "query documents by owner")
		}
		var records []record
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &records); err != nil {
			return nil, fmt.Errorf("unmarshal documents: %w", err)
		}
		for _, r := range records {
			doc, err := r.toDocument()
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	slices.SortStableFunc(docs, func(a, b *models.Document) int {
		return a.UploadedAt.Compare(b.UploadedAt)
	})
	return docs, nil
}

func (s *Store) Update(ctx context.Context, doc *models.Document) error {
	item, err := attributevalue.MarshalMap(toRecord(doc))
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrNotFound)
		}
		return awsutil.MapError(err, "update document")
	}
	return nil
}

// Delete removes the record and releases its slot pointer.
func (s *Store) Delete(ctx context.Context, docID id.DocumentID) error {
	doc, err := s.FindByID(ctx, docID)
	if err != nil {
		return err
	}
	_, err = s.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           aws.String(s.table),
				Key:                 key(docKey(docID), metaSK),
				ConditionExpression: aws.String("attribute_exists(PK)"),
			}},
			{Delete: &types.Delete{
				TableName:           aws.String(s.table),
				Key:                 key(slotKey(doc.OwnerID, doc.Category, doc.DocType), slotSK),
				ConditionExpression: aws.String("attribute_not_exists(PK) OR document_id = :id"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":id": &types.AttributeValueMemberS{Value: docID.String()},
				},
			}},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) && len(canceled.CancellationReasons) > 0 &&
			aws.ToString(canceled.CancellationReasons[0].Code) == "ConditionalCheckFailed" {
			return fmt.Errorf("document %s: %w", docID, sentinel.ErrNotFound)
		}
		return awsutil.MapError(err, "delete document")
	}
	return nil
}

// EnsureTable creates the table and owner index when they do not exist.
// Intended for development against LocalStack.
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.db.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(s.table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("owner_key"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("owner_sk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName: aws.String(ownerIndex),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("owner_key"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String("owner_sk"), KeyType: types.KeyTypeRange},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	})
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return nil
	}
	return awsutil.MapError(err, "create documents table")
}

func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
