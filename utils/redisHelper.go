package utils

import (
	"context"
	"reflect"
	"time"
)

// Cache is the subset of the Redis client the services use.
type Cache interface {
	GetObject(ctx context.Context, key string, dest any) (bool, error)
	SetObject(ctx context.Context, key string, obj any, exp time.Duration) error
	RemoveKey(ctx context.Context, keys ...string) error
}

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

// CacheKey is TypeName:id.
func CacheKey[T any](id string) string {
	return GetTypeName[T]() + ":" + id
}

func StoreRedis[T any](ctx context.Context, cache Cache, id string, obj T, exp time.Duration) error {
	if cache == nil {
		return nil
	}
	return cache.SetObject(ctx, CacheKey[T](id), obj, exp)
}

// RetrieveRedis reports a miss as (nil, false, nil).
func RetrieveRedis[T any](ctx context.Context, cache Cache, id string) (*T, bool, error) {
	if cache == nil {
		return nil, false, nil
	}
	var out T
	ok, err := cache.GetObject(ctx, CacheKey[T](id), &out)
	if err != nil || !ok {
		return nil, false, err
	}
	return &out, true, nil
}

func RemoveRedis[T any](ctx context.Context, cache Cache, id string) error {
	if cache == nil {
		return nil
	}
	return cache.RemoveKey(ctx, CacheKey[T](id))
}
