package config

// Response template keys. Wiki overrides take precedence; these defaults
// keep the bot functional against an empty wiki.
const (
	RespRulesComment      = "rules_comment"
	RespCoCPrompt         = "coc_prompt"
	RespClaimSuccess      = "claim_success"
	RespAlreadyClaimed    = "already_claimed"
	RespAlreadyCompleted  = "already_completed"
	RespDoneSuccess       = "done_success"
	RespCannotFind        = "done_cannot_find_transcript"
	RespNotClaimed        = "done_not_claimed"
	RespNotClaimedByYou   = "done_not_claimed_by_you"
	RespAlreadyTranscribe = "yt_already_transcribed"
	RespMentionDM         = "mention_dm"
	RespSummonedBy        = "summoned_by"
	RespPong              = "pong"
)

var defaultResponses = map[string]string{
	RespRulesComment: "If you would like to claim this post, please respond to this comment " +
		"with the word `claiming` or `claim` in your response. I will automatically update the " +
		"flair so that only one person is working on a post at any given time." +
		"\n\nWhen you're done, please comment again with `done`. Your flair will be updated to " +
		"reflect the number of posts you've transcribed and the will be marked as complete." +
		"\n\nThis is a(n) {type} post, so please use the formatting guide for that content type.",

	RespCoCPrompt: "Hi there! Before you claim your first post, please read our Code of Conduct " +
		"and respond to this comment with `I accept`. After that, just claim again!",

	RespClaimSuccess: "The post is yours! Best of luck and thanks for helping!" +
		"\n\nPlease respond with \"done\" when complete so we can check this one off the list!",

	RespAlreadyClaimed: "I'm sorry, but it looks like someone else has already claimed this post!",

	RespAlreadyCompleted: "This post has already been completed! Perhaps you can find a new one " +
		"on the front page?",

	RespDoneSuccess: "Awesome, thank you! I'll update the flair to show that this post has been " +
		"completed.",

	RespCannotFind: "Sorry, but I can't find your transcript post on the linked thread. Please " +
		"post your transcript as a top-level comment and try again.",

	RespNotClaimed: "This post has not yet been claimed. Please claim it first, then try again!",

	RespNotClaimedByYou: "I'm sorry, but it looks like this post was claimed by someone else. " +
		"If you think this is a mistake, please let the moderators know.",

	RespAlreadyTranscribe: "It looks like this video already has captions, so no transcription " +
		"is needed here. Thanks anyway!",

	RespMentionDM: "Thanks for summoning us to help with the post you flagged! A volunteer will " +
		"be along shortly. You can watch for the mirror at r/{sub}.",

	RespSummonedBy: "This post was summoned by a username mention: {url}",

	RespPong: "Pong!",
}
