package oss

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

func (bucket *Bucket) CreateLiveChannel(
	ctx context.Context,
	channelName string,
	configuration LiveChannelConfiguration,
) (*CreateLiveChannelResult, error) {
	body, err := xmlBody(&configuration)
	if err != nil {
		return nil, err
	}

	request := newObjectRequest(http.MethodPut, bucket.name, channelName, WithParam(SubresourceLive, "")).
		withBody(body, body.Size())

	var result CreateLiveChannelResult

	requestResult, err := bucket.client.doAndParse(ctx, request, &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

func (bucket *Bucket) DeleteLiveChannel(ctx context.Context, channelName string) (*RequestResult, error) {
	return bucket.client.doAndDiscard(ctx, newObjectRequest(http.MethodDelete, bucket.name, channelName,
		WithParam(SubresourceLive, "")))
}

func (bucket *Bucket) GetLiveChannel(ctx context.Context, channelName string) (*GetLiveChannelResult, error) {
	var result GetLiveChannelResult

	requestResult, err := bucket.client.doAndParse(ctx, newObjectRequest(http.MethodGet, bucket.name, channelName,
		WithParam(SubresourceLive, "")), &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

func (bucket *Bucket) ListLiveChannels(
	ctx context.Context,
	input ListLiveChannelsInput,
) (*ListLiveChannelsResult, error) {
	request := newRequest(http.MethodGet, bucket.name, "", WithParam(SubresourceLive, ""))
	setNonEmpty(request.params, "prefix", input.Prefix)
	setNonEmpty(request.params, "marker", input.Marker)
	setPositive(request.params, "max-keys", input.MaxKeys)

	var result ListLiveChannelsResult

	requestResult, err := bucket.client.doAndParse(ctx, request, &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

func (bucket *Bucket) GetLiveChannelStat(ctx context.Context, channelName string) (*GetLiveChannelStatResult, error) {
	var result GetLiveChannelStatResult

	requestResult, err := bucket.client.doAndParse(ctx, newObjectRequest(http.MethodGet, bucket.name, channelName,
		WithParam(SubresourceLive, ""), WithParam(SubresourceComp, "stat")), &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

// PutLiveChannelStatus switches a channel between LiveChannelStatusEnabled
// and LiveChannelStatusDisabled.
func (bucket *Bucket) PutLiveChannelStatus(
	ctx context.Context,
	channelName string,
	status string,
) (*RequestResult, error) {
	return bucket.client.doAndDiscard(ctx, newObjectRequest(http.MethodPut, bucket.name, channelName,
		WithParam(SubresourceLive, ""), WithParam(SubresourceStatus, status)))
}

// GetLiveChannelHistory returns up to 10 most recent push sessions.
func (bucket *Bucket) GetLiveChannelHistory(
	ctx context.Context,
	channelName string,
) (*GetLiveChannelHistoryResult, error) {
	var result GetLiveChannelHistoryResult

	requestResult, err := bucket.client.doAndParse(ctx, newObjectRequest(http.MethodGet, bucket.name, channelName,
		WithParam(SubresourceLive, ""), WithParam(SubresourceComp, "history")), &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

// PostVodPlaylist generates a video-on-demand playlist named playlistName
// from the fragments pushed to the channel between startTime and endTime
// (Unix timestamps).
func (bucket *Bucket) PostVodPlaylist(
	ctx context.Context,
	channelName string,
	playlistName string,
	startTime int64,
	endTime int64,
) (*RequestResult, error) {
	if channelName == "" || playlistName == "" {
		return nil, fmt.Errorf("%w: both the channel and the playlist name are required", ErrEmptyKey)
	}

	playlistKey := channelName + "/" + playlistName

	return bucket.client.doAndDiscard(ctx, newObjectRequest(http.MethodPost, bucket.name, playlistKey,
		WithParam(SubresourceVod, ""),
		WithParam("startTime", strconv.FormatInt(startTime, 10)),
		WithParam("endTime", strconv.FormatInt(endTime, 10)),
	))
}
