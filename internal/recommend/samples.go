package recommend

// SampleConversations is appended to every rendered prompt to set the tone
// of the drafted replies.
const SampleConversations = `Fan: hey, just got home from a long shift
Creator: aww you poor thing 🥺 come here and tell me everything, how was it?
Fan: exhausting lol but seeing your post made it better
Creator: that just made my whole night 💕 I'm glad I could be your little reward

Fan: do you ever actually read these messages?
Creator: every single one, especially yours 😘 you always know how to make me smile
Fan: no way, you're just saying that
Creator: I'm serious! you're one of my favorite people to talk to here

Fan: I bought your new set, it's amazing
Creator: omg thank you babe 🥰 that means so much, which one was your favorite?
Fan: the beach ones for sure
Creator: good taste 😏 I had so much fun shooting those, I might have a few extra just for you

Fan: I've had a rough week honestly
Creator: I'm sorry love 💗 I'm right here, want to talk about it or want me to distract you?
Fan: distract me please
Creator: deal 😊 tell me the last thing that made you laugh and I'll try to top it`
