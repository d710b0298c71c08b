package controller

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-posts/app/dto"
	"github.com/vibast-solutions/ms-go-posts/app/metrics"
	"github.com/vibast-solutions/ms-go-posts/app/service"
	"github.com/vibast-solutions/ms-go-posts/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type PostController struct {
	postService service.PostService
}

func NewPostController(postService service.PostService) *PostController {
	return &PostController{postService: postService}
}

func (c *PostController) Create(ctx echo.Context) error {
	ownerID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return respondError(ctx, http.StatusUnauthorized, "user not authenticated")
	}

	req, err := types.NewCreatePostRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind create post request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	post, err := c.postService.Create(ctx.Request().Context(), ownerID, req)
	if err != nil {
		if errors.Is(err, service.ErrPostExists) {
			logrus.WithField("user_id", ownerID).Warn("Create post failed: duplicate title")
			metrics.PostOperationsTotal.WithLabelValues("create", metrics.OutcomeFailure).Inc()
			return respondError(ctx, http.StatusConflict, err.Error())
		}
		logrus.WithError(err).WithField("user_id", ownerID).Error("Create post failed")
		metrics.PostOperationsTotal.WithLabelValues("create", metrics.OutcomeError).Inc()
		return respondInternalError(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": ownerID,
		"post_id": post.ID,
	}).Info("Post created")
	metrics.PostOperationsTotal.WithLabelValues("create", metrics.OutcomeSuccess).Inc()

	return respond(ctx, http.StatusCreated, dto.NewPostResponse(post), "post created successfully")
}

func (c *PostController) List(ctx echo.Context) error {
	ownerID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return respondError(ctx, http.StatusUnauthorized, "user not authenticated")
	}

	posts, err := c.postService.ListByOwner(ctx.Request().Context(), ownerID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", ownerID).Error("List posts failed")
		metrics.PostOperationsTotal.WithLabelValues("list", metrics.OutcomeError).Inc()
		return respondInternalError(ctx)
	}

	metrics.PostOperationsTotal.WithLabelValues("list", metrics.OutcomeSuccess).Inc()
	return respond(ctx, http.StatusOK, dto.NewPostListResponse(posts), "user posts retrieved successfully")
}

func (c *PostController) Update(ctx echo.Context) error {
	ownerID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return respondError(ctx, http.StatusUnauthorized, "user not authenticated")
	}

	req, err := types.NewUpdatePostRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update post request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	postID, err := req.PostID()
	if err != nil {
		return respondError(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	if err = req.Validate(); err != nil {
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	post, err := c.postService.Update(ctx.Request().Context(), ownerID, postID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			metrics.PostOperationsTotal.WithLabelValues("update", metrics.OutcomeFailure).Inc()
			return respondError(ctx, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPostExists):
			metrics.PostOperationsTotal.WithLabelValues("update", metrics.OutcomeFailure).Inc()
			return respondError(ctx, http.StatusConflict, err.Error())
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": ownerID,
			"post_id": postID,
		}).Error("Update post failed")
		metrics.PostOperationsTotal.WithLabelValues("update", metrics.OutcomeError).Inc()
		return respondInternalError(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": ownerID,
		"post_id": post.ID,
	}).Info("Post updated")
	metrics.PostOperationsTotal.WithLabelValues("update", metrics.OutcomeSuccess).Inc()

	return respond(ctx, http.StatusCreated, dto.NewPostResponse(post), "post updated successfully")
}

func (c *PostController) Delete(ctx echo.Context) error {
	ownerID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return respondError(ctx, http.StatusUnauthorized, "user not authenticated")
	}

	req, err := types.NewDeletePostRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind delete post request")
		return respondError(ctx, http.StatusUnprocessableEntity, types.ErrInvalidPostID.Error())
	}

	postID, err := req.PostID()
	if err != nil {
		return respondError(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	if err = c.postService.Delete(ctx.Request().Context(), ownerID, postID); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			metrics.PostOperationsTotal.WithLabelValues("delete", metrics.OutcomeFailure).Inc()
			return respondError(ctx, http.StatusNotFound, err.Error())
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": ownerID,
			"post_id": postID,
		}).Error("Delete post failed")
		metrics.PostOperationsTotal.WithLabelValues("delete", metrics.OutcomeError).Inc()
		return respondInternalError(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": ownerID,
		"post_id": postID,
	}).Info("Post deleted")
	metrics.PostOperationsTotal.WithLabelValues("delete", metrics.OutcomeSuccess).Inc()

	return respond(ctx, http.StatusOK, struct{}{}, "post deleted successfully")
}
