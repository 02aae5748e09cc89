package dynamolib

import (
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	cerrors "github.com/cockroachdb/errors"
	"github.com/pkg/errors"
)

func ValidateStringField(dynamoItem map[string]*dynamodb.AttributeValue, key string) error {
	value, ok := dynamoItem[key]
	if !ok {
		return errors.Errorf("No %s key was found", key)
	}

	if value.S == nil {
		return errors.Errorf("%s key is not in expected string format", key)
	}

	return nil
}

func IsConditionFailed(err error) bool {
	var awsErr awserr.Error
	if !cerrors.As(err, &awsErr) {
		return false
	}

	return awsErr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}
