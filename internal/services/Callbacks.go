package services

// Callback data understood by the dispatcher. Data equal to a view name
// opens that view; the prefixed forms carry an argument after the prefix.
const (
	CallbackVerify       = "verify_channel_join"
	CallbackClearConfirm = "clear_chat_confirm"
	CallbackClearCancel  = "clear_chat_cancel"

	ViewDashboard       = "admin_main"
	ViewRefresh         = "admin_refresh"
	ViewMessageSettings = "admin_msg_settings"
	ViewBannedWords     = "admin_banned_words"
	ViewChannelSettings = "admin_channel_settings"
	ViewUserList        = "admin_user_list"
	ViewLinkAnalytics   = "admin_link_analytics"
	ViewBotSettings     = "admin_bot_settings"
	ViewFileManagement  = "admin_file_management"
	ViewRemoveAll       = "admin_remove_all_downloads"

	CallbackToggleAutoDelete  = "toggle_auto_delete"
	CallbackToggleAnonymous   = "toggle_anonymous_removal"
	CallbackToggleBannedWords = "toggle_banned_words"
	CallbackAddBannedWord     = "add_banned_word"
	CallbackToggleChannelJoin = "toggle_channel_join"
	CallbackChangePromotion   = "change_promotion_channel"
	CallbackChangeHelp        = "change_help_channel"
	CallbackToggleAutoRemoval = "toggle_auto_removal"
	CallbackCleanScheduled    = "clean_all_files"
	CallbackConfirmRemoveAll  = "confirm_remove_all_downloads"
	CallbackChangePIN         = "admin_change_pin"
	CallbackExit              = "admin_exit"
	PrefixDeletionTime        = "set_deletion_time_"
	PrefixRemoveBannedWord    = "remove_banned_word_"
	PrefixLinkThreshold       = "set_link_threshold_"
	PrefixRemovalTime         = "set_removal_time_"
	PrefixMaxFileSize         = "set_max_file_size_"
	PrefixUserListPage        = "user_list_page_"
	PrefixUserDetails         = "user_details_"
	PrefixBanUser             = "ban_user_"
	PrefixUnbanUser           = "unban_user_"
	PrefixDeleteUser          = "delete_user_"
	PrefixResetUserStats      = "reset_user_stats_"
	PrefixMessageUser         = "message_user_"
)
