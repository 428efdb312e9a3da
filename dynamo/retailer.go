package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/catalog"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/retailer"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/slices"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

var _ retailer.Repository = &DB{}

type retailerDynamo struct {
	PK     string
	SK     string
	GSI1PK string
	GSI1SK string

	ID      string
	Version int

	BusinessName        string
	BusinessEmail       string
	BusinessDescription string
	PhoneNumber         string
	Address             retailer.Address
	BusinessType        string
	Categories          []string
	CategoryDetails     []categoryDetailDynamo
	Documents           []retailer.Document
	PasswordHash        string

	Analytics analyticsDynamo

	Status     string
	CreatedAt  time.Time
	VerifiedAt *time.Time
}

type categoryDetailDynamo struct {
	ID          string
	Name        string
	Type        string
	Description string
}

type analyticsDynamo struct {
	BusinessType      string
	PrimaryCategories []string
	CategoryCount     int
	HasProducts       bool
	HasServices       bool
	RegistrationDate  time.Time
}

// retailerEmailDynamo claims a business email so it can only be registered
// once. It is written in the same transaction as the retailer.
type retailerEmailDynamo struct {
	PK         string
	SK         string
	RetailerID string
}

const (
	retailerEntityName      = "RETAILER"
	retailerEmailEntityName = "RETAILER_EMAIL"

	conditionalCheckFailedCode = "ConditionalCheckFailed"
)

func retailerPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", retailerEntityName, id)
}

func retailerSK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", retailerEntityName, id)
}

func retailerEmailKey(email string) string {
	return fmt.Sprintf("%s#%s", retailerEmailEntityName, strings.ToLower(strings.TrimSpace(email)))
}

func newRetailerDynamo(r retailer.Retailer) retailerDynamo {
	return retailerDynamo{
		PK:                  retailerPK(r.ID),
		SK:                  retailerSK(r.ID),
		GSI1PK:              retailerEntityName,
		GSI1SK:              fmt.Sprintf("%s#%s#%s", retailerEntityName, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.ID),
		ID:                  r.ID.String(),
		Version:             r.Version,
		BusinessName:        r.BusinessName,
		BusinessEmail:       r.BusinessEmail,
		BusinessDescription: r.BusinessDescription,
		PhoneNumber:         r.PhoneNumber,
		Address:             r.Address,
		BusinessType:        r.Categories.Type.String(),
		Categories:          r.Categories.IDs,
		CategoryDetails:     slices.Map(r.Categories.Details, detailToDynamo),
		Documents:           r.Documents,
		PasswordHash:        r.PasswordHash,
		Analytics: analyticsDynamo{
			BusinessType:      r.Analytics.BusinessType.String(),
			PrimaryCategories: r.Analytics.PrimaryCategories,
			CategoryCount:     r.Analytics.CategoryCount,
			HasProducts:       r.Analytics.HasProducts,
			HasServices:       r.Analytics.HasServices,
			RegistrationDate:  r.Analytics.RegistrationDate,
		},
		Status:     r.Status.String(),
		CreatedAt:  r.CreatedAt,
		VerifiedAt: r.VerifiedAt,
	}
}

func retailerFromRetailerDynamo(r retailerDynamo) retailer.Retailer {
	businessType, _ := catalog.ParseBusinessType(r.BusinessType)
	analyticsType, _ := catalog.ParseBusinessType(r.Analytics.BusinessType)
	status, err := retailer.ParseStatus(r.Status)
	if err != nil {
		panic(fmt.Sprintf("unknown retailer status in DB: %s", err))
	}

	return retailer.Retailer{
		ID:                  uuid.MustParse(r.ID),
		Version:             r.Version,
		BusinessName:        r.BusinessName,
		BusinessEmail:       r.BusinessEmail,
		BusinessDescription: r.BusinessDescription,
		PhoneNumber:         r.PhoneNumber,
		Address:             r.Address,
		Categories: retailer.Categories{
			Type:    businessType,
			IDs:     r.Categories,
			Details: slices.Map(r.CategoryDetails, dynamoToDetail),
		},
		Documents:    r.Documents,
		PasswordHash: r.PasswordHash,
		Analytics: retailer.Analytics{
			BusinessType:      analyticsType,
			PrimaryCategories: r.Analytics.PrimaryCategories,
			CategoryCount:     r.Analytics.CategoryCount,
			HasProducts:       r.Analytics.HasProducts,
			HasServices:       r.Analytics.HasServices,
			RegistrationDate:  r.Analytics.RegistrationDate,
		},
		Status:     status,
		CreatedAt:  r.CreatedAt,
		VerifiedAt: r.VerifiedAt,
	}
}

func detailToDynamo(d catalog.Detail) categoryDetailDynamo {
	return categoryDetailDynamo{
		ID:          d.ID,
		Name:        d.Name,
		Type:        d.Kind.String(),
		Description: d.Description,
	}
}

func dynamoToDetail(d categoryDetailDynamo) catalog.Detail {
	kind, err := catalog.ParseKind(d.Type)
	if err != nil {
		panic(fmt.Sprintf("unknown category kind in DB: %s", err))
	}

	return catalog.Detail{
		Kind:        kind,
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
	}
}

func (d *DB) CreateRetailer(ctx context.Context, r retailer.Retailer) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	dynamoRetailer := newRetailerDynamo(r)

	retailerItem, err := attributevalue.MarshalMap(dynamoRetailer)
	if err != nil {
		return retailer.NewFailedToTranslateToDBModelError("Failed to convert Retailer to retailerDynamo", err)
	}
	retailerExpr := exprMustBuild(expression.NewBuilder().
		WithCondition(newEntityVersionConditional(dynamoRetailer.Version)))

	emailKey := retailerEmailKey(r.BusinessEmail)
	emailItem, err := attributevalue.MarshalMap(retailerEmailDynamo{
		PK:         emailKey,
		SK:         emailKey,
		RetailerID: dynamoRetailer.ID,
	})
	if err != nil {
		return retailer.NewFailedToTranslateToDBModelError("Failed to convert email claim to dynamo model", err)
	}
	emailExpr := exprMustBuild(expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeNotExists()))

	_, err = d.dynamoClient.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:                 aws.String(d.tableName),
					Item:                      retailerItem,
					ConditionExpression:       retailerExpr.Condition(),
					ExpressionAttributeNames:  retailerExpr.Names(),
					ExpressionAttributeValues: retailerExpr.Values(),
				},
			},
			{
				Put: &types.Put{
					TableName:                 aws.String(d.tableName),
					Item:                      emailItem,
					ConditionExpression:       emailExpr.Condition(),
					ExpressionAttributeNames:  emailExpr.Names(),
					ExpressionAttributeValues: emailExpr.Values(),
				},
			},
		},
	})
	if err != nil {
		var transactionFailedErr *types.TransactionCanceledException
		if errors.As(err, &transactionFailedErr) {
			reasons := transactionFailedErr.CancellationReasons
			if len(reasons) > 1 && aws.ToString(reasons[1].Code) == conditionalCheckFailedCode {
				return retailer.NewRetailerAlreadyExistsError(fmt.Sprintf("Retailer with email %q already exists", r.BusinessEmail), err)
			}
			if len(reasons) > 0 && aws.ToString(reasons[0].Code) == conditionalCheckFailedCode {
				return retailer.NewRetailerAlreadyExistsError(fmt.Sprintf("Retailer with ID %q already exists", r.ID), err)
			}
			return retailer.NewFailedToWriteError("Transaction was cancelled", err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return retailer.NewTimeoutError("CreateRetailer timed out")
		} else {
			return retailer.NewFailedToWriteError("Failed TransactWriteItems call", err)
		}
	}

	return nil
}

func (d *DB) GetRetailer(ctx context.Context, id uuid.UUID) (retailer.Retailer, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: retailerPK(id)},
			"SK": &types.AttributeValueMemberS{Value: retailerSK(id)},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return retailer.Retailer{}, retailer.NewTimeoutError("GetRetailer timed out")
		}
		return retailer.Retailer{}, retailer.NewFailedToFetchError(fmt.Sprintf("Failed to fetch retailer with ID %q", id), err)
	}

	if len(resp.Item) == 0 {
		return retailer.Retailer{}, retailer.NewRetailerDoesNotExistError(fmt.Sprintf("Retailer with ID %q not found", id), nil)
	}

	var dynRetailer retailerDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &dynRetailer)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal retailer from DB: %s", err))
	}

	return retailerFromRetailerDynamo(dynRetailer), nil
}

// GetRetailers lists retailers newest first.
func (d *DB) GetRetailers(ctx context.Context, limit int32, cursor *string) (retailer.GetRetailersResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	keyCond := expression.Key("GSI1PK").Equal(expression.Value(retailerEntityName)).
		And(expression.Key("GSI1SK").BeginsWith(retailerEntityName))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build dynamo key expression: %s", err))
	}

	var startKey map[string]types.AttributeValue
	if cursor != nil {
		startKey, err = cursorToStartKey(*cursor)
		if err != nil {
			return retailer.GetRetailersResponse{}, retailer.NewInvalidCursorError("Invalid cursor", err)
		}
	}

	result, err := d.dynamoClient.Query(ctx, &dynamodb.QueryInput{
		IndexName:                 aws.String(gsi1),
		TableName:                 aws.String(d.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		// Fetch 1 more than limit to check if there is another page or not
		Limit:             aws.Int32(limit + 1),
		ExclusiveStartKey: startKey,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return retailer.GetRetailersResponse{}, retailer.NewTimeoutError("GetRetailers timed out")
		}
		return retailer.GetRetailersResponse{}, retailer.NewFailedToFetchError("Failed to fetch retailers from dynamo", err)
	}

	var dynamoItems []retailerDynamo
	err = attributevalue.UnmarshalListOfMaps(result.Items, &dynamoItems)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal dynamo retailers: %s", err))
	}

	hasNextPage := len(dynamoItems) > int(limit)

	var newCursor *string
	if hasNextPage {
		// The extra item only signals another page; resume after the last one returned.
		c, err := retailerItemToCursor(result.Items[limit-1])
		if err != nil {
			panic(fmt.Sprintf("failed to make cursor from retailer item: %s", err))
		}
		newCursor = &c
	}

	return retailer.GetRetailersResponse{
		Data:        slices.Map(dynamoItems, retailerFromRetailerDynamo)[:min(int(limit), len(dynamoItems))],
		Cursor:      newCursor,
		HasNextPage: hasNextPage,
	}, nil
}

// UpdateRetailer overwrites the stored retailer. r.Version must be exactly one
// more than the stored version.
func (d *DB) UpdateRetailer(ctx context.Context, r retailer.Retailer) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	dynamoItem := newRetailerDynamo(r)

	item, err := attributevalue.MarshalMap(dynamoItem)
	if err != nil {
		return retailer.NewFailedToTranslateToDBModelError("Failed to convert Retailer to retailerDynamo", err)
	}

	expr := exprMustBuild(expression.NewBuilder().
		WithCondition(existingEntityVersionConditional(dynamoItem.Version)))

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condCheckFailedErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailedErr) {
			return retailer.NewRetailerDoesNotExistError(fmt.Sprintf("Retailer with ID %q at version %d does not exist", r.ID, r.Version-1), err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return retailer.NewTimeoutError("UpdateRetailer timed out")
		} else {
			return retailer.NewFailedToWriteError("Failed PutItem call", err)
		}
	}

	return nil
}
